// nyacc is the NyaC compiler driver. One sub-command per output target:
// `ast` pretty-prints the syntax tree, `ir` writes textual LLVM IR, `jit`
// compiles and runs the program's main function in-process.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/foxidokun/nyacc-go/src/ast"
	"github.com/foxidokun/nyacc-go/src/config"
	"github.com/foxidokun/nyacc-go/src/frontend"
	"github.com/foxidokun/nyacc-go/src/ir"
	irllvm "github.com/foxidokun/nyacc-go/src/ir/llvm"
	"github.com/foxidokun/nyacc-go/src/nyastd"
	"github.com/foxidokun/nyacc-go/src/util"
)

const appVersion = "0.2.0"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// pipeline carries everything the sub-commands share: the configuration, the
// logger and the parsed program.
type pipeline struct {
	cfg  config.Config
	log  *zap.Logger
	prog *ast.Program
}

// ---------------------
// ----- Functions -----
// ---------------------

func main() {
	ctl := cli.NewApp()
	ctl.Name = "nyacc"
	ctl.Usage = "compiler for the NyaC language"
	ctl.Version = appVersion
	ctl.Flags = []cli.Flag{
		cli.StringFlag{Name: "input, i", Usage: "path to the NyaC source file (stdin when omitted)"},
		cli.StringFlag{Name: "config, c", Usage: "path to a YAML config file"},
		cli.BoolFlag{Name: "verbose", Usage: "log compiler stages"},
	}

	outputFlag := cli.StringFlag{Name: "output, o", Usage: "output file (stdout when omitted)"}
	noOptimizeFlag := cli.BoolFlag{Name: "no-optimize", Usage: "skip the default optimization pipeline"}
	noFoldFlag := cli.BoolFlag{Name: "no-fold", Usage: "skip tree-level constant folding"}

	ctl.Commands = []cli.Command{
		{
			Name:   "ast",
			Usage:  "write the pretty-printed syntax tree",
			Flags:  []cli.Flag{outputFlag},
			Action: astAction,
		},
		{
			Name:   "ir",
			Usage:  "write the module as textual LLVM IR",
			Flags:  []cli.Flag{outputFlag, noOptimizeFlag, noFoldFlag},
			Action: irAction,
		},
		{
			Name:   "jit",
			Usage:  "compile and run the main function",
			Flags:  []cli.Flag{noOptimizeFlag, noFoldFlag},
			Action: jitAction,
		},
	}

	if err := ctl.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// getLogger builds the compiler's console logger.
func getLogger(verbose bool) (*zap.Logger, error) {
	cc := zap.NewDevelopmentConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.Encoding = "console"
	if !verbose {
		cc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	log, err := cc.Build()
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("module", "nyacc")), nil
}

// loadProgram runs the stages every sub-command needs: configuration,
// logging, source reading and parsing.
func loadProgram(c *cli.Context) (*pipeline, error) {
	cfgPath := c.GlobalString("config")
	var cfg config.Config
	var err error
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
	} else {
		cfg, err = config.LoadIfPresent(config.DefaultPath)
	}
	if err != nil {
		return nil, err
	}

	log, err := getLogger(cfg.Verbose || c.GlobalBool("verbose"))
	if err != nil {
		return nil, err
	}

	src, err := util.ReadSource(c.GlobalString("input"))
	if err != nil {
		return nil, err
	}

	log.Debug("parsing source", zap.Int("bytes", len(src)))
	prog, err := frontend.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	log.Debug("parsed program", zap.Int("blocks", len(prog.Blocks)))

	return &pipeline{cfg: cfg, log: log, prog: prog}, nil
}

// generate folds (unless disabled) and lowers the program to an IR module.
func (p *pipeline) generate(c *cli.Context) (*irllvm.CodegenContext, error) {
	if p.cfg.Fold && !c.Bool("no-fold") {
		ir.Fold(p.prog)
		p.log.Debug("constant folding done")
	}

	cg, err := irllvm.Prepare(p.prog, p.cfg.Module)
	if err != nil {
		return nil, err
	}
	if err := cg.Generate(p.prog); err != nil {
		cg.Dispose()
		return nil, err
	}
	if err := cg.Verify(); err != nil {
		cg.Dispose()
		return nil, fmt.Errorf("internal error, generated invalid module: %w", err)
	}
	p.log.Debug("code generation done")
	return cg, nil
}

func astAction(c *cli.Context) error {
	p, err := loadProgram(c)
	if err != nil {
		return err
	}

	sb := strings.Builder{}
	if err := ast.Fprint(&sb, p.prog); err != nil {
		return err
	}
	return util.WriteOutput(c.String("output"), sb.String())
}

func irAction(c *cli.Context) error {
	p, err := loadProgram(c)
	if err != nil {
		return err
	}

	cg, err := p.generate(c)
	if err != nil {
		return err
	}
	defer cg.Dispose()

	if p.cfg.Optimize && !c.Bool("no-optimize") {
		cg.Optimize()
		p.log.Debug("optimization pipeline done")
	}
	return util.WriteOutput(c.String("output"), cg.IR())
}

func jitAction(c *cli.Context) error {
	p, err := loadProgram(c)
	if err != nil {
		return err
	}

	cg, err := p.generate(c)
	if err != nil {
		return err
	}
	defer cg.Dispose()

	engine, err := irllvm.NewEngine(cg, p.cfg.Optimize && !c.Bool("no-optimize"))
	if err != nil {
		return err
	}
	defer engine.Dispose()

	// Bind the runtime helpers the module actually imports.
	for name, addr := range nyastd.Funcs() {
		if !engine.Declares(name) {
			continue
		}
		if err := engine.AddExternal(name, addr); err != nil {
			return err
		}
		p.log.Debug("bound runtime symbol", zap.String("name", name))
	}

	return engine.RunMain()
}

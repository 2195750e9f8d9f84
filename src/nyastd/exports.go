package nyastd

import "C"

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// stdin is shared between read_int calls so buffered input survives.
var stdin = bufio.NewReader(os.Stdin)

//export print_int
func print_int(x int64) {
	fmt.Printf("%d\n", x)
}

//export read_int
func read_int() int64 {
	fmt.Print("Input: ")
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(os.Stderr, "Failed to read line")
		os.Exit(1)
	}
	x, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Input not an integer")
		os.Exit(1)
	}
	return x
}

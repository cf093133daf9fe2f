// Command vela evaluates an ECMAScript source file through vela.Context
// and prints its completion value, the script-running counterpart of
// the teacher's grammar-compiling CLI.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vela-js/vela"
	"github.com/vela-js/vela/ascii"
)

func main() {
	var (
		scriptPath    = flag.String("script", "", "Path to the script file")
		astOnly       = flag.Bool("ast-only", false, "Print the parsed AST and exit")
		bytecodeOnly  = flag.Bool("bytecode-only", false, "Print the compiled bytecode and exit")
		verbose       = flag.Bool("verbose", false, "Enable console.log/error output")
	)
	flag.Parse()

	if *scriptPath == "" && flag.NArg() > 0 {
		*scriptPath = flag.Arg(0)
	}
	if *scriptPath == "" {
		fmt.Fprintln(os.Stderr, ascii.Color(ascii.DefaultTheme.Error, "no script given"))
		flag.Usage()
		os.Exit(2)
	}

	source, err := os.ReadFile(*scriptPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, ascii.Color(ascii.DefaultTheme.Error, "can't read script: %s", err))
		os.Exit(1)
	}

	if *astOnly {
		prog, perr := vela.ParseProgram(string(source))
		if perr != nil {
			fmt.Fprintln(os.Stderr, ascii.Color(ascii.DefaultTheme.Error, "parse error: %s", perr))
			os.Exit(1)
		}
		fmt.Println(prog.PrettyString())
		return
	}

	ctx := vela.NewContext(nil)

	if *bytecodeOnly {
		block, cerr := ctx.CompileToBytecode(string(source))
		if cerr != nil {
			fmt.Fprintln(os.Stderr, ascii.Color(ascii.DefaultTheme.Error, "%s", cerr))
			os.Exit(1)
		}
		fmt.Println(block.Dump())
		return
	}

	if *verbose {
		ctx.SetLogger(vela.NewStderrLogger())
	}

	result, rerr := ctx.Evaluate(string(source))
	if rerr != nil {
		fmt.Fprintln(os.Stderr, ascii.Color(ascii.DefaultTheme.Error, "%s", rerr))
		os.Exit(1)
	}
	fmt.Println(ctx.ToHostValue(result))
}

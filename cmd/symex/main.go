package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	symex "github.com/jilvan1234/VTIL-SymEx"
	"github.com/jilvan1234/VTIL-SymEx/parse"
	"github.com/jilvan1234/VTIL-SymEx/rewrite"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	prev := symex.SetSimplifier(nil)
	defer symex.SetSimplifier(prev)

	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	return cmd.ExecuteContext(ctx)
}

// Options holds the settings shared by every subcommand.
type Options struct {
	ConfigPath string
	Width      uint
	Vars       []string
	CacheSize  int
	Prettify   bool
	Verbose    bool
	NoColor    bool

	config     Config
	simplifier *rewrite.Simplifier
}

// NewRootCommand returns the "symex" command and its subcommands.
func NewRootCommand() *cobra.Command {
	opt := &Options{}
	cmd := &cobra.Command{
		Use:           "symex",
		Short:         "Simplify symbolic expressions.",
		Long:          "Symex parses, simplifies, resizes and compares fixed-width symbolic expressions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opt.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opt.ConfigPath, "config", "c", "", "path to TOML configuration file")
	flags.UintVarP(&opt.Width, "width", "w", parse.DefaultWidth, "default width of variables and literals")
	flags.StringArrayVar(&opt.Vars, "var", nil, "variable width as name=width")
	flags.IntVar(&opt.CacheSize, "cache-size", rewrite.DefaultCacheSize, "number of cached simplifications")
	flags.BoolVarP(&opt.Prettify, "prettify", "p", false, "rewrite into canonical order")
	flags.BoolVarP(&opt.Verbose, "verbose", "v", false, "increase logging verbosity")
	flags.BoolVar(&opt.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newSimplifyCommand(opt),
		newResizeCommand(opt),
		newEqualsCommand(opt),
		newInspectCommand(opt),
	)
	return cmd
}

// init loads the configuration file, applies flag overrides and installs the
// simplifier.
func (opt *Options) init(cmd *cobra.Command) error {
	if opt.Verbose {
		log.SetLevel(log.DebugLevel)
	}
	if opt.NoColor {
		color.NoColor = true
	}

	config := DefaultConfig()
	if opt.ConfigPath != "" {
		c, err := LoadConfig(opt.ConfigPath)
		if err != nil {
			return err
		}
		config = c
	}

	flags := cmd.Flags()
	if flags.Changed("width") {
		config.Width = opt.Width
	}
	if flags.Changed("cache-size") {
		config.CacheSize = opt.CacheSize
	}
	if flags.Changed("prettify") {
		config.Prettify = opt.Prettify
	}
	for _, v := range opt.Vars {
		name, width, err := parseVar(v)
		if err != nil {
			return err
		}
		if config.Variables == nil {
			config.Variables = make(map[string]uint)
		}
		config.Variables[name] = width
	}
	opt.config = config

	s, err := rewrite.New(config.CacheSize)
	if err != nil {
		return err
	}
	opt.simplifier = s
	symex.SetSimplifier(s)

	log.WithFields(log.Fields{
		"width":     config.Width,
		"variables": len(config.Variables),
		"cache":     config.CacheSize,
	}).Debug("configured")
	return nil
}

// parse reads an expression using the configured widths.
func (opt *Options) parse(src string) (symex.Ref, error) {
	return parse.Parse(src, parse.Config{
		DefaultWidth: opt.config.Width,
		Widths:       opt.config.Variables,
	})
}

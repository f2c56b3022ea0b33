package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"

	"github.com/prismmonkey/jsontext"
	"github.com/prismmonkey/jsontext/token"
)

var version string

type fileConfig struct {
	Culture      string `yaml:"culture"`
	SkipComments bool   `yaml:"skip_comments"`
}

// Return parsed options and the input filenames
func parseOptions(args []string) (jsontext.Options, bool, []string) {
	var opts struct {
		File         []string `long:"file" description:"Read JSON from the file, rather than stdin" value-name:"json_file" default:"-"`
		Dump         bool     `long:"dump" description:"Pretty-print the token stream instead of re-emitting text"`
		SkipComments bool     `long:"skip-comments" description:"Drop comment tokens from the output"`
		Culture      string   `long:"culture" description:"BCP 47 tag used for string coercions" value-name:"tag"`
		Config       string   `long:"config" description:"YAML file to specify: culture, skip_comments"`
		Help         bool     `long:"help" description:"Show this help"`
		Version      bool     `long:"version" description:"Show this version"`
	}

	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options]"
	args, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}

	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if len(args) > 0 {
		fmt.Printf("Unexpected arguments: %v\n\n", args)
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}

	options := jsontext.Options{SkipComments: opts.SkipComments}

	if opts.Config != "" {
		buf, err := os.ReadFile(opts.Config)
		if err != nil {
			log.Fatal(err)
		}
		var config fileConfig
		if err := yaml.Unmarshal(buf, &config); err != nil {
			log.Fatalf("Failed to parse '%s': %s", opts.Config, err)
		}
		if config.Culture != "" && opts.Culture == "" {
			opts.Culture = config.Culture
		}
		options.SkipComments = options.SkipComments || config.SkipComments
	}

	if opts.Culture != "" {
		tag, err := language.Parse(opts.Culture)
		if err != nil {
			log.Fatalf("Wrong value for culture is given: %s", opts.Culture)
		}
		options.Culture = tag
	}

	return options, opts.Dump, opts.File
}

func main() {
	options, dump, files := parseOptions(os.Args[1:])

	for _, file := range files {
		src := os.Stdin
		if file != "-" {
			var err error
			src, err = os.Open(file)
			if err != nil {
				log.Fatalf("Failed to open '%s': %s", file, err)
			}
			defer src.Close()
		}

		if dump {
			toks, err := jsontext.ReadAll(src)
			printer := pp.New()
			printer.SetColoringEnabled(term.IsTerminal(int(os.Stdout.Fd())))
			for _, tok := range toks {
				if options.SkipComments && tok.Type == token.Comment {
					continue
				}
				printer.Println(tok)
			}
			if err != nil {
				log.Fatal(err)
			}
			continue
		}

		if err := jsontext.Rewrite(src, os.Stdout, options); err != nil {
			log.Fatal(err)
		}
		fmt.Println()
	}
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssdl-lang/ssdlc/compiler"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
	authpg "github.com/ssdl-lang/ssdlc/internal/adapter/auth/postgres"
	s3store "github.com/ssdl-lang/ssdlc/internal/adapter/storage/s3"
	"github.com/ssdl-lang/ssdlc/internal/config"
	"github.com/ssdl-lang/ssdlc/internal/pkg/auth"
	"github.com/ssdl-lang/ssdlc/internal/pkg/explain"
	"github.com/ssdl-lang/ssdlc/internal/pkg/report"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	switch os.Args[1] {
	case "compile":
		runCompile(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "explain":
		runExplain(os.Args[2:])
	case "report":
		runReport(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "mcp":
		runMCP()
	case "keygen":
		runKeygen(os.Args[2:])
	case "version":
		runVersion()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("ssdlc — SSDL descriptor compiler v%s\n", compiler.Version)
	fmt.Println("\nUsage:")
	fmt.Println("  ssdlc compile   Compile a descriptor to canonical IR JSON")
	fmt.Println("  ssdlc validate  Run the pipeline without emitting IR")
	fmt.Println("  ssdlc explain   Explain an error code, or dump an IR entity at a dotted path")
	fmt.Println("  ssdlc report    Compile and render a PDF compile report")
	fmt.Println("  ssdlc serve     Run the HTTP compile service")
	fmt.Println("  ssdlc mcp       Run the stdio MCP server")
	fmt.Println("  ssdlc keygen    Generate and store an API key")
	fmt.Println("  ssdlc version   Print version information")
	fmt.Println("\nDescriptor arguments accept local paths, - (stdin), and s3:// URIs.")
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config FAILED: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newCompiler(cfg *config.Config) *compiler.Compiler {
	lang, err := cfg.Compiler.Language()
	if err != nil {
		fmt.Printf("Config FAILED: %v\n", err)
		os.Exit(1)
	}
	reg, err := cfg.Compiler.Registry()
	if err != nil {
		fmt.Printf("Config FAILED: %v\n", err)
		os.Exit(1)
	}
	return compiler.New(compiler.Config{
		SupportedMajors: cfg.Compiler.SupportedMajors,
		Language:        lang,
		Workers:         cfg.Compiler.Workers,
		Providers:       reg,
	})
}

// readSource loads descriptor text from a path, stdin, or an s3:// URI. The
// returned name carries the extension the parser selects the syntax by.
func readSource(ctx context.Context, cfg *config.Config, arg, nameOverride string) ([]byte, string, error) {
	switch {
	case arg == "-":
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		name := nameOverride
		if name == "" {
			name = "stdin.yaml"
		}
		return src, name, nil
	case strings.HasPrefix(arg, "s3://"):
		bucket, key, err := s3store.ParseURI(arg)
		if err != nil {
			return nil, "", err
		}
		store, err := s3store.New(ctx, cfg.S3.Region, cfg.S3.Endpoint)
		if err != nil {
			return nil, "", err
		}
		src, err := store.Fetch(ctx, bucket, key)
		if err != nil {
			return nil, "", err
		}
		name := nameOverride
		if name == "" {
			name = filepath.Base(key)
		}
		return src, name, nil
	default:
		src, err := os.ReadFile(arg)
		if err != nil {
			return nil, "", err
		}
		name := nameOverride
		if name == "" {
			name = arg
		}
		return src, name, nil
	}
}

func printDiagnostics(diags diag.List) {
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "⚠️  %s %s: %s\n", strings.ToUpper(string(d.Severity)), d.Code, d.Message)
		if d.Path != "" {
			fmt.Fprintf(os.Stderr, "   at %s\n", d.Path)
		}
		if d.File != "" {
			fmt.Fprintf(os.Stderr, "   at %s:%d:%d\n", d.File, d.Line, d.Column)
		}
		if d.Hint != "" {
			fmt.Fprintf(os.Stderr, "   💡 Hint: %s\n", d.Hint)
		}
	}
}

func compileArg(cfg *config.Config, arg, nameOverride string) *compiler.Result {
	ctx := context.Background()
	src, name, err := readSource(ctx, cfg, arg, nameOverride)
	if err != nil {
		fmt.Printf("Compile FAILED: %v\n", err)
		os.Exit(1)
	}
	res, err := newCompiler(cfg).CompileBytes(name, src)
	if err != nil {
		fmt.Printf("Compile FAILED: %v\n", err)
		os.Exit(1)
	}
	return res
}

func runCompile(args []string) {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	out := fs.String("o", "", "write IR to this file instead of stdout")
	format := fs.String("format", "json", "output format: json|summary")
	nameOverride := fs.String("filename", "", "source filename override for stdin and object URIs")
	if err := fs.Parse(args); err != nil {
		fmt.Printf("Compile FAILED: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Println("Usage: ssdlc compile [flags] <file|-|s3://bucket/key>")
		os.Exit(1)
	}

	cfg := loadConfig()
	res := compileArg(cfg, fs.Arg(0), *nameOverride)
	printDiagnostics(res.Diagnostics)

	switch *format {
	case "summary":
		printSummary(res)
	case "json":
		if res.State == compiler.StateEmitted {
			if *out != "" {
				if err := os.WriteFile(*out, res.CanonicalIR, 0644); err != nil {
					fmt.Printf("Compile FAILED: %v\n", err)
					os.Exit(1)
				}
				fmt.Fprintf(os.Stderr, "IR written to %s\n", *out)
			} else {
				os.Stdout.Write(res.CanonicalIR)
				fmt.Println()
			}
		}
	default:
		fmt.Printf("Unknown format: %s\n", *format)
		os.Exit(1)
	}

	if code := res.ExitCode(); code != 0 {
		os.Exit(code)
	}
}

func printSummary(res *compiler.Result) {
	fmt.Printf("State:       %s\n", res.State)
	if res.FailedStage != "" {
		fmt.Printf("Failed at:   %s\n", res.FailedStage)
	}
	fmt.Printf("Descriptor:  %s\n", res.DescriptorHash)
	if res.IR != nil {
		fmt.Printf("Content:     %s\n", res.IR.ContentHash)
	}
	fmt.Printf("Diagnostics: %d fatal, %d warning\n",
		len(res.Diagnostics.Fatals()), len(res.Diagnostics.Warnings()))
	if res.State == compiler.StateEmitted {
		fmt.Println("Compile SUCCESSFUL.")
	} else {
		fmt.Println("Compile FAILED.")
	}
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	nameOverride := fs.String("filename", "", "source filename override for stdin and object URIs")
	if err := fs.Parse(args); err != nil {
		fmt.Printf("Validation FAILED: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Println("Usage: ssdlc validate [flags] <file|-|s3://bucket/key>")
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "Validating descriptor...")
	cfg := loadConfig()
	res := compileArg(cfg, fs.Arg(0), *nameOverride)
	printDiagnostics(res.Diagnostics)

	if code := res.ExitCode(); code != 0 {
		fmt.Println("Validation FAILED due to diagnostic errors.")
		os.Exit(code)
	}
	fmt.Println("Validation SUCCESSFUL.")
}

func runExplain(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: ssdlc explain <CODE> | ssdlc explain <file> <dotted.path>")
		os.Exit(1)
	}
	if len(args) == 1 {
		entry, ok := explain.Lookup(args[0])
		if !ok {
			fmt.Printf("Unknown code: %s\n", strings.TrimSpace(args[0]))
			codes := make([]string, 0, len(explain.All()))
			for _, e := range explain.All() {
				codes = append(codes, e.Code)
			}
			fmt.Fprintf(os.Stderr, "Known codes: %s\n", strings.Join(codes, ", "))
			os.Exit(1)
		}
		if entry.Example == "" {
			fmt.Printf("%s\n%s\n", entry.Title, entry.Description)
			return
		}
		fmt.Printf("%s\n%s\n\nExample:\n%s\n", entry.Title, entry.Description, entry.Example)
		return
	}

	cfg := loadConfig()
	res := compileArg(cfg, args[0], "")
	if res.State != compiler.StateEmitted {
		printDiagnostics(res.Diagnostics)
		fmt.Println("Explain FAILED: descriptor did not compile.")
		os.Exit(res.ExitCode())
	}
	node, err := irNode(res.CanonicalIR, args[1])
	if err != nil {
		fmt.Printf("Explain FAILED: %v\n", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(node, "", "  ")
	fmt.Println(string(out))
}

// irNode walks a dotted path through the canonical IR JSON. Numeric segments
// index arrays.
func irNode(canonical []byte, path string) (any, error) {
	var doc any
	if err := json.Unmarshal(canonical, &doc); err != nil {
		return nil, fmt.Errorf("decode IR: %w", err)
	}
	node := doc
	for _, seg := range strings.Split(path, ".") {
		switch v := node.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, fmt.Errorf("no entity at %q (missing %q)", path, seg)
			}
			node = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("no entity at %q (bad index %q)", path, seg)
			}
			node = v[idx]
		default:
			return nil, fmt.Errorf("no entity at %q (%q is a leaf)", path, seg)
		}
	}
	return node, nil
}

func runReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	out := fs.String("o", "", "output PDF path (default: <file>.report.pdf)")
	nameOverride := fs.String("filename", "", "source filename override for stdin and object URIs")
	if err := fs.Parse(args); err != nil {
		fmt.Printf("Report FAILED: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Println("Usage: ssdlc report [flags] <file|-|s3://bucket/key>")
		os.Exit(1)
	}

	cfg := loadConfig()
	res := compileArg(cfg, fs.Arg(0), *nameOverride)
	printDiagnostics(res.Diagnostics)
	if res.State != compiler.StateEmitted {
		fmt.Println("Report FAILED: descriptor did not compile.")
		os.Exit(res.ExitCode())
	}

	pdf, err := report.NewGenerator(nil).GenerateCompileReport(res.DescriptorHash, res.IR)
	if err != nil {
		fmt.Printf("Report FAILED: %v\n", err)
		os.Exit(1)
	}
	target := *out
	if target == "" {
		base := fs.Arg(0)
		if base == "-" || strings.HasPrefix(base, "s3://") {
			base = "descriptor"
		}
		target = strings.TrimSuffix(base, filepath.Ext(base)) + ".report.pdf"
	}
	if err := os.WriteFile(target, pdf, 0644); err != nil {
		fmt.Printf("Report FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Report written to %s\n", target)
}

func runKeygen(args []string) {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		fmt.Printf("Keygen FAILED: %v\n", err)
		os.Exit(1)
	}

	cfg := loadConfig()
	if cfg.Postgres.DSN == "" {
		fmt.Println("Keygen FAILED: set SSDLC_POSTGRES_DSN; keys are stored in Postgres.")
		os.Exit(1)
	}

	id, secret, full, err := auth.GenerateKey()
	if err != nil {
		fmt.Printf("Keygen FAILED: %v\n", err)
		os.Exit(1)
	}
	hash, err := auth.HashSecret(secret)
	if err != nil {
		fmt.Printf("Keygen FAILED: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		fmt.Printf("Keygen FAILED: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := authpg.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		fmt.Printf("Keygen FAILED: %v\n", err)
		os.Exit(1)
	}
	if err := store.Add(ctx, id, hash); err != nil {
		fmt.Printf("Keygen FAILED: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("API key: %s\n", full)
	fmt.Printf("Stored key id %s. The secret is not recoverable; save the full key now.\n", id)
}

func runVersion() {
	cfg := loadConfig()
	majors := make([]string, 0, len(cfg.Compiler.SupportedMajors))
	for _, m := range cfg.Compiler.SupportedMajors {
		majors = append(majors, strconv.Itoa(m))
	}
	fmt.Printf("ssdlc version %s (IR schema %s)\n", compiler.Version, compiler.SchemaVersion)
	fmt.Printf("Language version %s; supported majors %s\n",
		cfg.Compiler.LanguageVersion, strings.Join(majors, ", "))
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/budgetguard/techops/internal/ctl"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "deploy":
		fs := flag.NewFlagSet("deploy", flag.ExitOnError)
		nodes := fs.String("nodes", "", `Comma-separated node types, e.g. "FLUX Dev,SDXL" (required)`)
		providers := fs.String("providers", "", "Comma-separated providers: aws, azure, gcp, local (required)")
		tier := fs.String("tier", "", "GPU tier for cloud providers: t4, a10g, a100")
		fs.Parse(os.Args[2:])

		if *nodes == "" || *providers == "" {
			fmt.Fprintln(os.Stderr, "Error: -nodes and -providers are required")
			fs.Usage()
			os.Exit(1)
		}

		if err := ctl.Deploy(ctx, splitList(*nodes), splitList(*providers), *tier); err != nil {
			fatal(err)
		}

	case "status":
		if err := ctl.Status(ctx); err != nil {
			fatal(err)
		}

	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		out := fs.String("out", "", "Output path for the export document")
		s3Key := fs.String("s3-key", "", "S3 object key to publish the document under")
		fs.Parse(os.Args[2:])

		if err := ctl.Export(ctx, *out, *s3Key); err != nil {
			fatal(err)
		}

	case "credentials":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: techopsctl credentials <set|encrypt|install> [flags]")
			os.Exit(1)
		}
		credentialsCommand(ctx, os.Args[2], os.Args[3:])

	case "package":
		fs := flag.NewFlagSet("package", flag.ExitOnError)
		nodes := fs.String("nodes", "", `Comma-separated node types (required)`)
		dir := fs.String("dir", "", "Directory to assemble the package into (required)")
		fs.Parse(os.Args[2:])

		if *nodes == "" || *dir == "" {
			fmt.Fprintln(os.Stderr, "Error: -nodes and -dir are required")
			fs.Usage()
			os.Exit(1)
		}

		if err := ctl.Package(splitList(*nodes), *dir); err != nil {
			fatal(err)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func credentialsCommand(ctx context.Context, sub string, args []string) {
	switch sub {
	case "set":
		fs := flag.NewFlagSet("credentials set", flag.ExitOnError)
		provider := fs.String("provider", "", "Provider: aws, azure, gcp, nvidia-hosted (required)")
		fieldsFile := fs.String("f", "", "Path to JSON file of credential fields (required)")
		fs.Parse(args)

		if *provider == "" || *fieldsFile == "" {
			fmt.Fprintln(os.Stderr, "Error: -provider and -f are required")
			fs.Usage()
			os.Exit(1)
		}

		if err := ctl.CredentialsSet(ctx, *provider, *fieldsFile); err != nil {
			fatal(err)
		}

	case "encrypt":
		fs := flag.NewFlagSet("credentials encrypt", flag.ExitOnError)
		mode := fs.String("mode", "studio-wide", "Distribution mode: studio-wide or per-workstation")
		workstation := fs.String("workstation", "", "Workstation ID (per-workstation mode)")
		out := fs.String("out", "credentials.artifact.json", "Output path for the credential artifact")
		keyOut := fs.String("key-out", "", "Output path for the one-time key (per-workstation mode)")
		fs.Parse(args)

		if err := ctl.CredentialsEncrypt(ctx, *mode, *workstation, *out, *keyOut); err != nil {
			fatal(err)
		}

	case "install":
		fs := flag.NewFlagSet("credentials install", flag.ExitOnError)
		configPath := fs.String("config", "", "Path to the export document (required)")
		artifact := fs.String("artifact", "", "Path to the credential artifact (required)")
		dir := fs.String("dir", "", "Workstation configuration directory (required)")
		mode := fs.String("mode", "studio-wide", "Distribution mode: studio-wide or per-workstation")
		workstation := fs.String("workstation", "", "This workstation's ID (per-workstation mode)")
		keyFile := fs.String("key-file", "", "Path to the delivered key file (per-workstation mode)")
		passphrase := fs.String("passphrase", "", "Studio passphrase (studio-wide mode)")
		fs.Parse(args)

		if *configPath == "" || *artifact == "" || *dir == "" {
			fmt.Fprintln(os.Stderr, "Error: -config, -artifact and -dir are required")
			fs.Usage()
			os.Exit(1)
		}

		if err := ctl.CredentialsInstall(*configPath, *artifact, *dir, *mode, *workstation, *keyFile, *passphrase); err != nil {
			fatal(err)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown credentials subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  techopsctl deploy -nodes "FLUX Dev,SDXL" -providers aws,local -tier a10g
  techopsctl status
  techopsctl export -out budgetguard_artists_config.json [-s3-key exports/latest.json]
  techopsctl credentials set -provider aws -f fields.json
  techopsctl credentials encrypt [-mode studio-wide|per-workstation] [-workstation ID] [-out FILE] [-key-out FILE]
  techopsctl credentials install -config FILE -artifact FILE -dir DIR [-mode ...] [-workstation ID] [-key-file FILE] [-passphrase ...]
  techopsctl package -nodes "FLUX Dev" -dir ./install-package

Commands:
  deploy       Dispatch a deploy batch across node types and providers
  status       Print the deployment matrix
  export       Build and distribute the endpoint export document
  credentials  Store, bundle, or install encrypted credentials
  package      Assemble a local install package file set`)
}

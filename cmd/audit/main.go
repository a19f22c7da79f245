// Command audit runs the referential-integrity sweep over the record
// store and local blob storage.
//
//	audit check [orphans|files|all]
//	audit repair [orphans|files|all]
//	audit check --verify-cascade
//
// Exit codes: 0 clean, 1 problems found, 2 run failure.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"scriptrack/internal/config"
	"scriptrack/internal/database"
	"scriptrack/internal/integrity"
	"scriptrack/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	mode, scope, verifyCascade, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "usage: audit check|repair [orphans|files|all] [--verify-cascade]")
		return 2
	}

	cfg, err := config.Load(".")
	if err != nil {
		log.Printf("load config: %v", err)
		return 2
	}

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		log.Printf("db connect: %v", err)
		return 2
	}

	primary := storage.NewLocal(cfg.Storage.UploadDir)
	legacy := storage.NewLocal(cfg.Storage.LegacyDir)
	validator := integrity.NewValidator(primary, legacy)
	auditor := integrity.NewAuditor(db, validator)

	ctx := context.Background()

	if verifyCascade {
		if err := auditor.VerifyCascade(ctx); err != nil {
			log.Printf("cascade verification FAILED: %v", err)
			return 1
		}
		log.Println("cascade verification ok")
	}

	report, err := auditor.Run(ctx, scope, mode == "repair")
	if err != nil {
		log.Printf("audit failed: %v", err)
		return 2
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))

	if len(report.RepairErrors) > 0 {
		return 2
	}
	if !report.Clean() {
		return 1
	}
	return 0
}

func parseArgs(args []string) (mode string, scope integrity.Scope, verifyCascade bool, err error) {
	scope = integrity.ScopeAll
	for _, a := range args {
		switch a {
		case "check", "repair":
			mode = a
		case "orphans":
			scope = integrity.ScopeOrphans
		case "files":
			scope = integrity.ScopeFiles
		case "all":
			scope = integrity.ScopeAll
		case "--verify-cascade":
			verifyCascade = true
		default:
			return "", "", false, fmt.Errorf("unknown argument %q", a)
		}
	}
	if mode == "" {
		return "", "", false, fmt.Errorf("mode required")
	}
	return mode, scope, verifyCascade, nil
}

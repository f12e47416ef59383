package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	"tinygo.org/x/go-llvm"
)

// Build-time variables injected via linker flags (ldflags).
//
//	go build -ldflags "-X main.Version=$(git describe --tags) -X main.Commit=... -X main.BuildDate=..." -o tppc
var (
	Version   = "dev"     // Overwritten with git tag (e.g., "v0.5.0")
	Commit    = "unknown" // Overwritten with git commit hash
	BuildDate = "unknown" // Overwritten with build timestamp
)

// MIN_LLVM is the oldest LLVM whose C API matches the typed GEP, load and call
// builders the generator uses.
const MIN_LLVM = ">= 15.0.0"

// printVersion prints version information to w.
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "tppc %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "  llvm:   %s\n", llvm.Version)
	if Commit != "unknown" {
		fmt.Fprintf(w, "  commit: %s\n", Commit)
	}
	if BuildDate != "unknown" {
		fmt.Fprintf(w, "  built:  %s\n", BuildDate)
	}
}

// llvmSemver drops vendor suffixes such as "git" or "-rust-1.80" that LLVM
// builds append to the release number.
func llvmSemver(v string) string {
	end := strings.IndexFunc(v, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if end >= 0 {
		v = v[:end]
	}
	return strings.TrimSuffix(v, ".")
}

// checkLLVMVersion reports an error when v does not satisfy MIN_LLVM.
func checkLLVMVersion(v string) error {
	sv, err := semver.NewVersion(llvmSemver(v))
	if err != nil {
		return fmt.Errorf("unrecognized LLVM version %q: %w", v, err)
	}
	c, err := semver.NewConstraint(MIN_LLVM)
	if err != nil {
		return err
	}
	if !c.Check(sv) {
		return fmt.Errorf("LLVM %s is too old, need %s", v, MIN_LLVM)
	}
	return nil
}

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/tpplang/tppc/pipeline"
	"tinygo.org/x/go-llvm"
)

const (
	HASH_FILE = ".hash"
	LOCK_FILE = ".lock"

	// old outputs are kept for a week, and the newest few always survive
	KEEP_OUTPUTS    = 5
	OUTPUT_MAX_AGE  = 7 * 24 * 60 * 60
	SHORT_HASH_SIZE = 8
)

// defaultTPPCache returns $TPPCACHE, or the per-user cache directory of the
// platform when it is not set.
func defaultTPPCache() string {
	if env := os.Getenv("TPPCACHE"); env != "" {
		return env
	}

	homeDir, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LocalAppData"); localAppData != "" {
			return filepath.Join(localAppData, "tppc")
		}
		return filepath.Join(homeDir, "AppData", "Local", "tppc")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Caches", "tppc")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "tppc")
		}
		return filepath.Join(homeDir, ".cache", "tppc")
	}
}

// isHashDir returns true if name is an 8-char hex string (matches shortHash format).
func isHashDir(name string) bool {
	if len(name) != SHORT_HASH_SIZE {
		return false
	}
	_, err := hex.DecodeString(name)
	return err == nil
}

// settingsHash hashes everything besides the source that changes the IR.
func settingsHash(h hash.Hash, opts pipeline.Options) {
	h.Write([]byte(Version))
	h.Write([]byte(llvm.Version))
	h.Write([]byte(strconv.FormatBool(opts.Analyze)))
	h.Write([]byte(runtime.GOOS))
	h.Write([]byte(runtime.GOARCH))
}

// unitHash returns the short hash naming the output directory of a unit and
// the full hash stored in it to detect collisions.
func unitHash(u pipeline.Unit, opts pipeline.Options) (shortHash, fullHash string) {
	h := sha256.New()
	settingsHash(h, opts)
	h.Write([]byte(u.Source))
	fullHash = hex.EncodeToString(h.Sum(nil))
	return fullHash[:SHORT_HASH_SIZE], fullHash
}

// outputCache holds the IR of every compiled unit. Entries of units that
// compiled without any finding carry a hash file and are reused while the
// source is unchanged. Layout:
//
//	<dir>/<module>/<shortHash>/<module>.ll
//	<dir>/<module>/<shortHash>/.hash
type outputCache struct {
	dir string
}

func (oc outputCache) moduleDir(u pipeline.Unit) string {
	return filepath.Join(oc.dir, u.ModuleName())
}

func (oc outputCache) irPath(u pipeline.Unit, shortHash string) string {
	return filepath.Join(oc.moduleDir(u), shortHash, u.ModuleName()+pipeline.IR_SUFFIX)
}

// lock takes the per-module lock, creating the module directory if needed.
func (oc outputCache) lock(u pipeline.Unit) (*flock.Flock, error) {
	dir := oc.moduleDir(u)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, LOCK_FILE))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	return lock, nil
}

// Lookup returns the cached IR path of u if a clean compile of the same
// source and settings is stored.
func (oc outputCache) Lookup(u pipeline.Unit, opts pipeline.Options) (string, bool) {
	lock, err := oc.lock(u)
	if err != nil {
		return "", false
	}
	defer lock.Unlock()

	shortHash, fullHash := unitHash(u, opts)
	stored, err := os.ReadFile(filepath.Join(oc.moduleDir(u), shortHash, HASH_FILE))
	if err != nil || string(stored) != fullHash {
		return "", false
	}
	path := oc.irPath(u, shortHash)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Store writes ir for u and returns its path. The hash file is written last
// and marks the entry reusable; it is left out unless clean is set.
func (oc outputCache) Store(u pipeline.Unit, opts pipeline.Options, ir string, clean bool) (string, error) {
	lock, err := oc.lock(u)
	if err != nil {
		return "", err
	}
	defer lock.Unlock()

	shortHash, fullHash := unitHash(u, opts)
	entry := filepath.Join(oc.moduleDir(u), shortHash)
	if err := os.MkdirAll(entry, 0755); err != nil {
		return "", fmt.Errorf("create cache entry: %w", err)
	}
	path := oc.irPath(u, shortHash)
	if err := os.WriteFile(path, []byte(ir), 0644); err != nil {
		return "", fmt.Errorf("write IR: %w", err)
	}
	defer cleanupOldOutputs(oc.moduleDir(u), KEEP_OUTPUTS, OUTPUT_MAX_AGE)

	hashFile := filepath.Join(entry, HASH_FILE)
	if !clean {
		os.Remove(hashFile)
		return path, nil
	}
	if err := os.WriteFile(hashFile, []byte(fullHash), 0644); err != nil {
		return "", fmt.Errorf("write hash file: %w", err)
	}
	return path, nil
}

// cleanupOldOutputs removes old hash directories of one module.
// Only deletes directories older than minAge AND keeps at least 'keep' most recent.
func cleanupOldOutputs(moduleDir string, keep int, minAge int64) {
	entries, err := os.ReadDir(moduleDir)
	if err != nil || len(entries) <= keep {
		return
	}

	type dirInfo struct {
		name  string
		mtime int64
	}
	var dirs []dirInfo
	for _, e := range entries {
		if e.IsDir() && isHashDir(e.Name()) {
			if info, err := e.Info(); err == nil {
				dirs = append(dirs, dirInfo{e.Name(), info.ModTime().Unix()})
			}
		}
	}

	if len(dirs) <= keep {
		return
	}

	// Sort by mtime ascending (oldest first), remove oldest if older than minAge
	cutoff := time.Now().Unix() - minAge
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].mtime < dirs[j].mtime })
	for i := 0; i < len(dirs)-keep; i++ {
		if dirs[i].mtime < cutoff {
			path := filepath.Join(moduleDir, dirs[i].name)
			if err := os.RemoveAll(path); err != nil {
				fmt.Printf("warning: failed to remove old output %s: %v\n", path, err)
			}
		}
	}
}

// Copy copies the contents of the file at srcpath to a regular file
// at dstpath. If the file named by dstpath already exists, it is
// truncated.
func Copy(srcpath, dstpath string) (err error) {
	r, err := os.Open(srcpath)
	if err != nil {
		return err
	}
	defer r.Close() // ignore error: file was opened read-only.

	w, err := os.Create(dstpath)
	if err != nil {
		return err
	}

	defer func() {
		// Report the error, if any, from Close, but do so
		// only if there isn't already an outgoing error.
		c := w.Close()
		if err == nil {
			err = c
		}
	}()

	_, err = io.Copy(w, r)
	return err
}

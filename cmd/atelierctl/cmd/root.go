// Package cmd contains the atelierctl commands.
package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/good-yellow-bee/atelier/internal/storage"
)

const defaultDBPath = "data/atelier.db"

var (
	dbPath string
	output string
)

var rootCmd = &cobra.Command{
	Use:   "atelierctl",
	Short: "Atelier administration",
	Long: `atelierctl manages designers, clients and projects directly in the
Atelier database, for operators working outside the web portal.

Examples:
  # Create a designer account
  atelierctl designer create --name "Dana Lee" --email dana@example.com

  # Create a client and their project for a designer
  atelierctl client create --designer dana@example.com --name "Carl" --email carl@example.com

  # List a designer's projects as JSON
  atelierctl project list --designer dana@example.com -o json`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath, "path to SQLite database file")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
}

// openDatabase opens and migrates the SQLite database. The file must exist
// unless create is set.
func openDatabase(path string, create bool) (*storage.SQLiteStorage, error) {
	if !create {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("database file not found: %s", path)
		}
	}

	store := storage.NewSQLiteStorage(path)
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store, nil
}

// promptPassword reads a password without echo when in is a terminal, and
// one line otherwise.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	return readLine(in)
}

// stdinReaders keeps buffered readers per input so consecutive prompts on
// piped input do not lose data to read-ahead.
var stdinReaders = map[io.Reader]*bufio.Reader{}

func readLine(in io.Reader) (string, error) {
	r, ok := stdinReaders[in]
	if !ok {
		r = bufio.NewReader(in)
		stdinReaders[in] = r
	}
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Command inspect dumps the raw key/value records of a persistent
// teamline store, optionally filtered by key prefix. Debugging tool;
// run it against a stopped server's data directory.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
)

func main() {
	dbPath := flag.String("db", "", "pebble data directory (required)")
	prefix := flag.String("prefix", "", "only dump keys with this prefix (e.g. user:, convmsg:, notif:)")
	keysOnly := flag.Bool("keys", false, "print keys only")
	flag.Parse()

	if *dbPath == "" || *dbPath == ":memory:" {
		fmt.Fprintln(os.Stderr, "inspect requires a persistent -db path")
		os.Exit(2)
	}

	db, err := pebble.Open(*dbPath, &pebble.Options{ReadOnly: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", *dbPath, err)
		os.Exit(1)
	}
	defer db.Close()

	opts := &pebble.IterOptions{}
	if *prefix != "" {
		opts.LowerBound = []byte(*prefix)
		opts.UpperBound = upperBound([]byte(*prefix))
	}
	it, err := db.NewIter(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "iterator: %v\n", err)
		os.Exit(1)
	}
	defer it.Close()

	n := 0
	for it.First(); it.Valid(); it.Next() {
		if *keysOnly {
			fmt.Printf("%s\n", it.Key())
		} else {
			fmt.Printf("%s\t%s\n", it.Key(), it.Value())
		}
		n++
	}
	fmt.Fprintf(os.Stderr, "%d records\n", n)
}

func upperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

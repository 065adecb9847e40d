// Command pagebufferd is a small interactive driver for exercising a
// buffer pool manager from the terminal: new/fetch/unpin/flush/flushall/
// delete/stats commands against a single backing file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"pagebuffer/bufferpool"
	"pagebuffer/diskio"
	"pagebuffer/page"
	"pagebuffer/pbconfig"
)

func main() {
	cfg := pbconfig.Default()
	flag.IntVar(&cfg.PoolSize, "pool-size", cfg.PoolSize, "number of buffer pool frames")
	flag.IntVar(&cfg.ReplacerK, "replacer-k", cfg.ReplacerK, "LRU-K replacer k")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "backing file path")
	flag.Parse()

	disk, err := diskio.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagebufferd: %v\n", err)
		os.Exit(1)
	}
	defer disk.Close()

	bp := bufferpool.New(cfg.PoolSize, cfg.ReplacerK, disk)
	fmt.Printf("[pagebufferd] ready: pool_size=%d replacer_k=%d db=%s\n", cfg.PoolSize, cfg.ReplacerK, cfg.DBPath)

	repl(bp)
}

func repl(bp *bufferpool.Manager) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("commands: new | fetch <id> | unpin <id> [dirty] | flush <id> | flushall | delete <id> | stats | quit")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "new":
			pg, err := bp.NewPage()
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Printf("new page id=%d\n", pg.ID())

		case "fetch":
			id, ok := parseID(fields)
			if !ok {
				continue
			}
			pg, err := bp.FetchPage(id)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Printf("fetched id=%d pinCount=%d dirty=%v\n", pg.ID(), pg.PinCount(), pg.IsDirty())

		case "unpin":
			id, ok := parseID(fields)
			if !ok {
				continue
			}
			dirty := len(fields) > 2 && fields[2] == "dirty"
			if err := bp.UnpinPage(id, dirty); err != nil {
				fmt.Println("error:", err)
			}

		case "flush":
			id, ok := parseID(fields)
			if !ok {
				continue
			}
			if err := bp.FlushPage(id); err != nil {
				fmt.Println("error:", err)
			}

		case "flushall":
			bp.FlushAllPages()

		case "delete":
			id, ok := parseID(fields)
			if !ok {
				continue
			}
			if err := bp.DeletePage(id); err != nil {
				fmt.Println("error:", err)
			}

		case "stats":
			fmt.Println(bp.Stats())

		case "quit", "exit":
			return

		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

func parseID(fields []string) (page.ID, bool) {
	if len(fields) < 2 {
		fmt.Println("usage:", fields[0], "<id>")
		return 0, false
	}
	n, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		fmt.Println("invalid page id:", fields[1])
		return 0, false
	}
	return page.ID(n), true
}

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"snappy-chat/domain"
	"snappy-chat/repositories"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	pendingOnly := flag.Bool("pending", false, "Only show messages still waiting for their recipient")
	recipient := flag.String("to", "", "Only show messages sent to this user")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	messages, err := repositories.ReadMessages(db)
	if err != nil {
		log.Fatal(err)
	}
	render(os.Stdout, filter(messages, *pendingOnly, *recipient))
}

func filter(messages []domain.Message, pendingOnly bool, recipient string) []domain.Message {
	return lo.Filter(messages, func(m domain.Message, _ int) bool {
		if pendingOnly && m.Delivered {
			return false
		}
		return recipient == "" || domain.SamePrincipal(m.Recipient, recipient)
	})
}

func render(w io.Writer, messages []domain.Message) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Sender", "Recipient", "Delivered", "Timestamp", "Message"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, m := range messages {
		content := m.Content
		if len([]rune(content)) > 60 {
			content = string([]rune(content)[:60]) + "…"
		}
		table.Append([]string{
			strconv.FormatUint(m.ID, 10),
			m.Sender,
			m.Recipient,
			strconv.FormatBool(m.Delivered),
			m.At.UTC().Format(time.DateTime),
			content,
		})
	}
	table.Render()
	fmt.Fprintf(w, "%d message(s)\n", len(messages))
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}

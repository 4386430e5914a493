package main

import (
	"chat-exchange/domain"
	"chat-exchange/infrastructure/storage"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func main() {
	dbPath := flag.String("db", "", "Path to the badger rate cache (BADGER_FILEPATH)")
	prefix := flag.String("prefix", storage.RateKeyPrefix, "Prefix to scan")
	flag.Parse()
	if *dbPath == "" {
		log.Fatal("-db is required")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Date", "Bank", "Entries", "Currencies", "Expires"})
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

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			err := item.Value(func(v []byte) error {
				resp, err := domain.ParseRateResponse(v)
				if err != nil {
					// Keep listing the other archives.
					fmt.Printf("Error decoding key %s: %v\n", rawKey, err)
					return nil
				}

				currencies := lo.FilterMap(resp.ExchangeRate, func(e domain.RateEntry, _ int) (string, bool) {
					return e.Currency()
				})
				date, _ := resp.Document.StringField("date")
				bank, _ := resp.Document.StringField("bank")

				table.Append([]string{
					rawKey,
					date,
					bank,
					strconv.Itoa(len(resp.ExchangeRate)),
					strings.Join(currencies, ","),
					expiresAt(item),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func expiresAt(item *badger.Item) string {
	if item.ExpiresAt() == 0 {
		return "never"
	}
	return strconv.FormatUint(item.ExpiresAt(), 10)
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}

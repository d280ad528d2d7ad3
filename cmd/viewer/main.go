package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"voicenet/domain"
	"voicenet/repositories"
)

// Read-only inspector for the radio log. Opens the Badger store without
// taking the lock, so it works while the core is running.
func main() {
	dbPath := flag.String("db", "./data/voicenet", "Path to badger DB")
	netID := flag.String("net", "", "Restrict to one net id (empty scans every net)")
	flag.Parse()

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Net", "Kind", "Author", "Summary", "Packet"})
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

	prefix := "log:"
	if *netID != "" {
		prefix = fmt.Sprintf("log:%s:", *netID)
	}

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var entry repositories.RadioLogEntry
				if err := json.Unmarshal(v, &entry); err != nil {
					fmt.Printf("Error unmarshaling key %s: %v\n", string(it.Item().Key()), err)
					return nil
				}
				table.Append([]string{
					entry.At.Format("15:04:05"),
					string(entry.NetID),
					colorKind(entry.Kind),
					entry.Author,
					entry.Summary,
					packetDetail(entry.Packet),
				})
				count++
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
	fmt.Printf("\n%d radio log entries\n", count)
}

func colorKind(kind string) string {
	switch domain.PacketType(kind) {
	case domain.PacketPriorityOverride:
		return color.Red.Sprint(kind)
	case domain.PacketDisciplineChange, domain.PacketSecureModeChange:
		return color.Yellow.Sprint(kind)
	case domain.PacketWhisperStart, domain.PacketWhisperStop, domain.PacketWhisperLane:
		return color.Cyan.Sprint(kind)
	default:
		return kind
	}
}

func packetDetail(packet *domain.CommandBusPacket) string {
	if packet == nil {
		return ""
	}
	if len(packet.Payload) == 0 {
		return string(packet.Type)
	}
	raw, err := json.Marshal(packet.Payload)
	if err != nil {
		return string(packet.Type)
	}
	detail := string(raw)
	if len(detail) > 60 {
		detail = detail[:60] + "..."
	}
	return detail
}

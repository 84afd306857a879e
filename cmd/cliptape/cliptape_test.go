package cliptapecmder_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cliptape/api"
	cliptapecmder "github.com/papercomputeco/cliptape/cmd/cliptape"
	listcmder "github.com/papercomputeco/cliptape/cmd/cliptape/list"
	"github.com/papercomputeco/cliptape/pkg/client"
	"github.com/papercomputeco/cliptape/pkg/coordinator"
	"github.com/papercomputeco/cliptape/pkg/history"
	"github.com/papercomputeco/cliptape/pkg/kv/inmemory"
	cliplogger "github.com/papercomputeco/cliptape/pkg/logger"
)

// run executes the root command with args and returns what it printed.
func run(stdin string, args ...string) (string, error) {
	var out bytes.Buffer

	cmd := cliptapecmder.NewCliptapeCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	return out.String(), err
}

func listJSON() []listcmder.Entry {
	out, err := run("", "list", "--json")
	Expect(err).NotTo(HaveOccurred())

	var entries []listcmder.Entry
	Expect(json.Unmarshal([]byte(out), &entries)).To(Succeed())
	return entries
}

func entryTexts(entries []listcmder.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

var _ = Describe("NewCliptapeCmd", func() {
	It("registers every subcommand", func() {
		cmd := cliptapecmder.NewCliptapeCmd()

		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"serve", "capture", "list", "clear", "delete", "settings", "ui", "config", "init", "version",
		))
	})

	It("has global debug and config-dir flags", func() {
		cmd := cliptapecmder.NewCliptapeCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})

var _ = Describe("Client commands", func() {
	BeforeEach(func() {
		GinkgoT().Setenv("HOME", GinkgoT().TempDir())

		driver := inmemory.NewDriver()
		dispatcher := coordinator.NewDispatcher(history.New(driver))
		server, err := api.NewServer(api.Config{}, dispatcher, driver, cliplogger.Nop())
		Expect(err).NotTo(HaveOccurred())

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		served := make(chan error, 1)
		go func() { served <- server.Serve(ln) }()
		DeferCleanup(func() {
			_ = server.Shutdown()
			Eventually(served).Should(Receive())
		})

		GinkgoT().Setenv("CLIPTAPE_CLIENT_API_TARGET", "http://"+ln.Addr().String())
	})

	Describe("capture", func() {
		It("records the joined arguments", func() {
			out, err := run("", "capture", "hello", "world")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Captured"))

			entries := listJSON()
			Expect(entryTexts(entries)).To(Equal([]string{"hello world"}))
			Expect(entries[0].URL).To(Equal("cli://capture"))
		})

		It("reads stdin without arguments and trims it", func() {
			_, err := run("  from stdin\n", "capture", "--title", "pipe")
			Expect(err).NotTo(HaveOccurred())

			entries := listJSON()
			Expect(entryTexts(entries)).To(Equal([]string{"from stdin"}))
			Expect(entries[0].Title).To(Equal("pipe"))
		})

		It("ignores blank text", func() {
			out, err := run(" \n\t", "capture")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Nothing to capture"))
			Expect(listJSON()).To(BeEmpty())
		})

		It("moves a repeated capture to the front", func() {
			for _, text := range []string{"A", "B", "A"} {
				_, err := run("", "capture", "-q", text)
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(entryTexts(listJSON())).To(Equal([]string{"A", "B"}))
		})
	})

	Describe("list", func() {
		BeforeEach(func() {
			for _, text := range []string{"apple pie", "banana", "green apple"} {
				_, err := run("", "capture", "-q", text)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("keeps absolute positions when filtering", func() {
			out, err := run("", "list", "--json", "--query", "APPLE")
			Expect(err).NotTo(HaveOccurred())

			var entries []listcmder.Entry
			Expect(json.Unmarshal([]byte(out), &entries)).To(Succeed())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Index).To(Equal(0))
			Expect(entries[0].Text).To(Equal("green apple"))
			Expect(entries[1].Index).To(Equal(2))
		})

		It("prints a table", func() {
			out, err := run("", "list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("banana"))
			Expect(out).To(ContainSubstring("3 of 3 entries"))
		})

		It("honors the limit", func() {
			out, err := run("", "list", "--json", "-n", "1")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("green apple"))
			Expect(out).NotTo(ContainSubstring("banana"))
		})
	})

	Describe("delete", func() {
		BeforeEach(func() {
			for _, text := range []string{"A", "B", "C"} {
				_, err := run("", "capture", "-q", text)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("removes exactly one entry", func() {
			_, err := run("", "delete", "1")
			Expect(err).NotTo(HaveOccurred())
			Expect(entryTexts(listJSON())).To(Equal([]string{"C", "A"}))
		})

		It("leaves the history unchanged for out of range indexes", func() {
			_, err := run("", "delete", "99")
			Expect(err).NotTo(HaveOccurred())
			Expect(listJSON()).To(HaveLen(3))
		})

		It("rejects non-integer indexes", func() {
			_, err := run("", "delete", "first")
			Expect(err).To(MatchError(ContainSubstring("index must be an integer")))
		})
	})

	Describe("settings", func() {
		It("shows the default limit", func() {
			out, err := run("", "settings")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("100"))
		})

		DescribeTable("clamps set-max",
			func(value, expected string) {
				out, err := run("", "settings", "set-max", value)
				Expect(err).NotTo(HaveOccurred())
				Expect(out).To(ContainSubstring(expected))

				out, err = run("", "settings", "get")
				Expect(err).NotTo(HaveOccurred())
				Expect(out).To(ContainSubstring(expected))
			},
			Entry("in range", "250", "250"),
			Entry("zero", "0", "1"),
			Entry("too large", "5000", "1000"),
			Entry("nonsense", "nonsense", "100"),
		)

		It("truncates the history when lowering the limit", func() {
			for _, text := range []string{"A", "B", "C"} {
				_, err := run("", "capture", "-q", text)
				Expect(err).NotTo(HaveOccurred())
			}

			_, err := run("", "settings", "set-max", "2")
			Expect(err).NotTo(HaveOccurred())
			Expect(entryTexts(listJSON())).To(Equal([]string{"C", "B"}))
		})
	})

	Describe("clear", func() {
		It("empties the history", func() {
			_, err := run("", "capture", "-q", "A")
			Expect(err).NotTo(HaveOccurred())

			_, err = run("", "clear", "--yes")
			Expect(err).NotTo(HaveOccurred())

			out, err := run("", "list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("No clipboard history yet."))
		})

		It("does not prompt when stdin is not a terminal", func() {
			_, err := run("", "capture", "-q", "A")
			Expect(err).NotTo(HaveOccurred())

			_, err = run("n\n", "clear")
			Expect(err).NotTo(HaveOccurred())
			Expect(listJSON()).To(BeEmpty())
		})
	})
})

var _ = Describe("Client commands without a daemon", func() {
	It("reports the daemon as unavailable", func() {
		GinkgoT().Setenv("HOME", GinkgoT().TempDir())

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		target := "http://" + ln.Addr().String()
		Expect(ln.Close()).To(Succeed())

		_, err = run("", "list", "--api-target", target)
		Expect(err).To(MatchError(client.ErrUnavailable))
	})
})

package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/cliptape/cmd/cliptape/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}

		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .cliptape dir so the manager picks it up
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".cliptape"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
	})

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(run("set", "storage.driver", "file")).To(Succeed())

			data, err := os.ReadFile(filepath.Join(tmpDir, ".cliptape", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`driver = "file"`))
		})

		It("rejects unknown keys", func() {
			Expect(run("set", "invalid_key", "value")).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			Expect(run("set", "storage.driver")).NotTo(Succeed())
		})

		It("rejects zero arguments", func() {
			Expect(run("set")).NotTo(Succeed())
		})

		It("rejects unknown storage drivers", func() {
			Expect(run("set", "storage.driver", "redis")).NotTo(Succeed())
		})

		It("rejects invalid durations", func() {
			Expect(run("set", "client.timeout", "soon")).NotTo(Succeed())
		})

		It("rejects invalid booleans", func() {
			Expect(run("set", "capture.enabled", "maybe")).NotTo(Succeed())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(run("set", "capture.poll_interval", "1s")).To(Succeed())

			out.Reset()
			Expect(run("get", "capture.poll_interval")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("1s"))
		})

		It("reports defaults for unset keys", func() {
			Expect(run("get", "client.api_target")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("http://localhost:8765"))
		})

		It("rejects unknown keys", func() {
			Expect(run("get", "invalid_key")).NotTo(Succeed())
		})

		It("requires exactly one argument", func() {
			Expect(run("get")).NotTo(Succeed())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key when no config exists", func() {
			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("storage.driver"))
			Expect(out.String()).To(ContainSubstring("event_stream.topic"))
		})

		It("shows values that were set", func() {
			Expect(run("set", "event_stream.brokers", "a:9092,b:9092")).To(Succeed())

			out.Reset()
			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(`"a:9092,b:9092"`))
		})

		It("rejects any arguments", func() {
			Expect(run("list", "extra")).NotTo(Succeed())
		})
	})
})

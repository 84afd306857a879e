package sqlite_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cliptape/pkg/kv"
	"github.com/papercomputeco/cliptape/pkg/kv/kvtest"
	"github.com/papercomputeco/cliptape/pkg/kv/sqlite"
)

var _ = Describe("Driver", func() {
	Context("in memory", func() {
		kvtest.StoreBehaviour(func() kv.Store {
			driver, err := sqlite.NewDriver(context.Background(), ":memory:")
			Expect(err).NotTo(HaveOccurred())
			return driver
		})
	})

	Context("on disk", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = os.MkdirTemp("", "cliptape-sqlite-*")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(os.RemoveAll, dir)
		})

		It("persists values across reopen", func() {
			ctx := context.Background()
			path := filepath.Join(dir, "cliptape.sqlite")

			driver, err := sqlite.NewDriver(ctx, path)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Set(ctx, map[string]json.RawMessage{
				"clipboardSettings": json.RawMessage(`{"maxItems":7}`),
			})).To(Succeed())
			Expect(driver.Close()).To(Succeed())

			reopened, err := sqlite.NewDriver(ctx, path)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			values, err := reopened.Get(ctx, "clipboardSettings")
			Expect(err).NotTo(HaveOccurred())
			Expect(values["clipboardSettings"]).To(MatchJSON(`{"maxItems":7}`))
		})
	})
})

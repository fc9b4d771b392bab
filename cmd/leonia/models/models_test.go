package modelscmder_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	modelscmder "github.com/papercomputeco/leonia/cmd/leonia/models"
	"github.com/papercomputeco/leonia/pkg/modelconf"
)

var _ = Describe("models", func() {
	var (
		server    *httptest.Server
		configDir string
	)

	BeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/tags" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"models": []map[string]any{
					{"name": "distilgpt2:latest", "model": "distilgpt2:latest"},
				},
			})
		}))
		DeferCleanup(server.Close)

		var err error
		configDir, err = os.MkdirTemp("", "leonia-models-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { os.RemoveAll(configDir) })
	})

	run := func(args ...string) (string, error) {
		cmd := modelscmder.NewModelsCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .leonia/ config directory")
		cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(GinkgoWriter)
		cmd.SetArgs(append(args, "--config-dir", configDir))

		err := cmd.Execute()
		return out.String(), err
	}

	lineFor := func(out, name string) string {
		for line := range strings.Lines(out) {
			if strings.Contains(line, name+" ") || strings.HasSuffix(strings.TrimSpace(line), name) {
				return line
			}
		}
		return ""
	}

	Describe("list", func() {
		It("marks configurations missing on the backend", func() {
			out, err := run("list", "--provider", "ollama", "--target", server.URL)
			Expect(err).NotTo(HaveOccurred())

			for _, name := range modelconf.NewBuiltinRegistry().Names() {
				Expect(out).To(ContainSubstring(name))
			}
			Expect(lineFor(out, "DISTILGPT2")).NotTo(ContainSubstring("(not downloaded)"))
			Expect(lineFor(out, "PYTHIA_3B_DEDUPED_SFT_R1")).To(ContainSubstring("(not downloaded)"))
		})

		It("reports the backend check as a step", func() {
			out, err := run("list", "--provider", "ollama", "--target", server.URL)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Checking backend models"))
			Expect(out).To(ContainSubstring("✓"))
		})

		It("keeps listing when the backend check fails", func() {
			out, err := run("list", "--provider", "ollama", "--target", "http://127.0.0.1:1")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("✗"))
			Expect(out).To(ContainSubstring("could not list backend models"))
			Expect(out).To(ContainSubstring("DISTILGPT2"))
			Expect(out).NotTo(ContainSubstring("(not downloaded)"))
		})

		It("skips the backend when offline", func() {
			out, err := run("list", "--offline")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("DISTILGPT2"))
			Expect(out).NotTo(ContainSubstring("(not downloaded)"))
		})

		It("includes entries from a catalog file", func() {
			catalog := filepath.Join(configDir, "models.toml")
			Expect(os.WriteFile(catalog, []byte(`[models.TINY]
repo = "tiny"
token_end = "</s>"
token_human = "<h>"
token_bot = "<b>"
`), 0o600)).To(Succeed())

			out, err := run("list", "--offline", "--catalog", catalog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("TINY"))
		})
	})

	Describe("show", func() {
		It("describes a configuration by name", func() {
			out, err := run("show", "pythia_3b_deduped_sft_r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("PYTHIA_3B_DEDUPED_SFT_R1"))
			Expect(out).To(ContainSubstring("<human>"))
			Expect(out).To(ContainSubstring("increment:"))
		})

		It("defaults to the selected configuration", func() {
			out, err := run("show")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("DISTILGPT2"))
			Expect(out).To(ContainSubstring("Testing only"))
		})

		It("fails for unknown names", func() {
			_, err := run("show", "GPT-NOPE")
			Expect(errors.Is(err, modelconf.ErrConfigurationNotFound)).To(BeTrue())
		})
	})
})

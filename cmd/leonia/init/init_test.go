package initcmder_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/leonia/cmd/leonia/init"
	"github.com/papercomputeco/leonia/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"extra"})).NotTo(Succeed())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "leonia-init-test-*")
		Expect(err).NotTo(HaveOccurred())
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	run := func(args ...string) (string, error) {
		cmd := initcmder.NewInitCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(GinkgoWriter)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	It("creates a .leonia directory with a default config.toml", func() {
		out, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Initialized .leonia directory"))

		info, err := os.Stat(filepath.Join(tmpDir, ".leonia"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.Model.Name).To(Equal("DISTILGPT2"))
		Expect(cfg.Completion.Provider).To(Equal("ollama"))
		Expect(cfg.Completion.Target).To(Equal("http://localhost:11434"))
	})

	It("does not overwrite existing contents when already initialized", func() {
		dir := filepath.Join(tmpDir, ".leonia")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())

		state := filepath.Join(dir, "chat.json")
		Expect(os.WriteFile(state, []byte(`{"session":"abc"}`), 0o644)).To(Succeed())
		cfgPath := filepath.Join(dir, "config.toml")
		Expect(os.WriteFile(cfgPath, []byte("version = 0\n\n[model]\nname = \"X\"\n"), 0o644)).To(Succeed())

		out, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Already initialized"))

		data, err := os.ReadFile(state)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"session":"abc"}`))
		Expect(loadConfig(tmpDir).Model.Name).To(Equal("X"))
	})

	Describe("--preset with backend presets", func() {
		It("writes the llamacpp preset", func() {
			_, err := run("--preset", "llamacpp")
			Expect(err).NotTo(HaveOccurred())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Completion.Provider).To(Equal("openai"))
			Expect(cfg.Completion.Target).To(Equal("http://localhost:8080"))
			Expect(cfg.Model.Name).To(Equal("DISTILGPT2"))
		})

		It("overwrites config.toml when re-run with a different preset", func() {
			_, err := run("--preset", "openai")
			Expect(err).NotTo(HaveOccurred())
			Expect(loadConfig(tmpDir).Completion.Target).To(Equal("https://api.openai.com"))

			_, err = run("--preset", "ollama")
			Expect(err).NotTo(HaveOccurred())
			Expect(loadConfig(tmpDir).Completion.Provider).To(Equal("ollama"))
		})

		It("rejects unknown preset names before creating anything", func() {
			_, err := run("--preset", "anthropic")
			Expect(err).To(MatchError(ContainSubstring("unknown preset")))

			_, err = os.Stat(filepath.Join(tmpDir, ".leonia"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})

	Describe("--preset with remote URL", func() {
		It("fetches and writes a remote config.toml", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "version = 0\n\n[model]\nname = \"PYTHIA_3B_DEDUPED_SFT_R1\"\n\n[completion]\nprovider = \"openai\"\ntarget = \"http://gpu:8080\"\n")
			}))
			defer server.Close()

			_, err := run("--preset", server.URL)
			Expect(err).NotTo(HaveOccurred())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Model.Name).To(Equal("PYTHIA_3B_DEDUPED_SFT_R1"))
			Expect(cfg.Completion.Target).To(Equal("http://gpu:8080"))
		})

		It("returns an error for a non-200 response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			_, err := run("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("HTTP 404")))
		})

		It("returns an error for invalid TOML", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "this is not valid toml [[[")
			}))
			defer server.Close()

			_, err := run("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("parsing")))
		})

		It("returns an error for an unreachable URL", func() {
			_, err := run("--preset", "http://127.0.0.1:1")
			Expect(err).To(MatchError(ContainSubstring("fetching remote config")))
		})
	})
})

func loadConfig(baseDir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(baseDir, ".leonia", "config.toml"))
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	ExpectWithOffset(1, toml.Unmarshal(data, cfg)).To(Succeed())
	return cfg
}

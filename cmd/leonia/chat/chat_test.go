package chatcmder_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/papercomputeco/leonia/cmd/leonia/chat"
	"github.com/papercomputeco/leonia/pkg/dotdir"
	"github.com/papercomputeco/leonia/pkg/modelconf"
	"github.com/papercomputeco/leonia/pkg/storage/sqlite"
)

// fakeOllama serves /api/generate from a queue of replies. An empty reply
// queue answers with defaultReply. A reply of "!500" fails the call.
type fakeOllama struct {
	*httptest.Server

	mu      sync.Mutex
	replies []string
	prompts []string
}

const defaultReply = "ok<|endoftext|>"

func newFakeOllama() *fakeOllama {
	f := &fakeOllama{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}

		var req struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		f.prompts = append(f.prompts, req.Prompt)
		reply := defaultReply
		if len(f.replies) > 0 {
			reply, f.replies = f.replies[0], f.replies[1:]
		}
		f.mu.Unlock()

		if reply == "!500" {
			http.Error(w, "model crashed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":       "distilgpt2",
			"response":    reply,
			"done":        true,
			"done_reason": "length",
		})
	}))
	return f
}

func (f *fakeOllama) script(replies ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, replies...)
}

func (f *fakeOllama) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("registers the model flag from the config registry", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("model")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("m"))
		Expect(flag.DefValue).To(Equal("DISTILGPT2"))
	})

	It("has --resume and --session flags", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Flags().Lookup("resume")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("session")).NotTo(BeNil())
	})
})

var _ = Describe("chat", func() {
	var (
		server    *fakeOllama
		configDir string
	)

	BeforeEach(func() {
		server = newFakeOllama()
		DeferCleanup(server.Close)

		var err error
		configDir, err = os.MkdirTemp("", "leonia-chat-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { os.RemoveAll(configDir) })

		GinkgoT().Setenv("XDG_DATA_HOME", "")
		GinkgoT().Setenv("LEONIA_SQLITE", "")
	})

	run := func(input string, args ...string) (string, error) {
		cmd := chatcmder.NewChatCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .leonia/ config directory")
		cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

		var out bytes.Buffer
		cmd.SetIn(strings.NewReader(input))
		cmd.SetOut(&out)
		cmd.SetErr(GinkgoWriter)
		cmd.SetArgs(append([]string{
			"--config-dir", configDir,
			"--provider", "ollama",
			"--target", server.URL,
		}, args...))

		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	chatState := func() *dotdir.ChatState {
		state, err := dotdir.NewManager().LoadChatState(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).NotTo(BeNil())
		return state
	}

	openStore := func() *sqlite.SQLiteDriver {
		driver, err := sqlite.NewSQLiteDriver(context.Background(), filepath.Join(configDir, "leonia.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(driver.Close)
		return driver
	}

	It("streams a reply and records the committed turn", func() {
		server.script("Hi the", "re<|endoftext|>")

		out, err := run("Hello\n/exit\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Hi there"))
		Expect(out).To(ContainSubstring("testing only"))
		Expect(out).To(ContainSubstring("words per sec)"))

		prompts := server.Prompts()
		Expect(prompts).To(HaveLen(2))
		Expect(prompts[0]).To(HaveSuffix("<|prompter|>Hello<|assistant|>"))
		Expect(prompts[1]).To(HaveSuffix("<|prompter|>Hello<|assistant|>Hi the"))

		state := chatState()
		Expect(state.Session).NotTo(BeEmpty())
		Expect(state.Configuration).To(Equal("DISTILGPT2"))
		Expect(state.Head).NotTo(BeEmpty())

		node, err := openStore().Get(context.Background(), state.Head)
		Expect(err).NotTo(HaveOccurred())
		Expect(node.IsRoot()).To(BeTrue())
		Expect(node.Bucket.Session).To(Equal(state.Session))
		Expect(node.Bucket.Human).To(Equal("Hello"))
		Expect(node.Bucket.Bot).To(Equal("Hi there"))
		Expect(node.Transcript).To(HaveSuffix("<|prompter|>Hello<|assistant|>Hi there"))
	})

	It("resumes the last session from the stored transcript", func() {
		server.script("Hi there<|endoftext|>")
		_, err := run("Hello\n")
		Expect(err).NotTo(HaveOccurred())
		first := chatState()

		server.script("Welcome back<|endoftext|>")
		out, err := run("Again\n", "--resume")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Resuming from"))

		prompts := server.Prompts()
		Expect(prompts[len(prompts)-1]).To(HaveSuffix(
			"<|prompter|>Hello<|assistant|>Hi there<|prompter|>Again<|assistant|>",
		))

		second := chatState()
		Expect(second.Session).To(Equal(first.Session))
		Expect(second.Head).NotTo(Equal(first.Head))

		node, err := openStore().Get(context.Background(), second.Head)
		Expect(err).NotTo(HaveOccurred())
		Expect(node.ParentHash).NotTo(BeNil())
		Expect(*node.ParentHash).To(Equal(first.Head))
	})

	It("resumes a session by id", func() {
		_, err := run("Hello\n")
		Expect(err).NotTo(HaveOccurred())
		session := chatState().Session

		out, err := run("/exit\n", "--session", session)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(session))
		Expect(out).To(ContainSubstring("Resuming from"))
	})

	It("rejects a session id with no stored turns", func() {
		_, err := run("", "--session", "does-not-exist")
		Expect(err).To(MatchError(ContainSubstring("has no stored turns")))
	})

	It("fails before any completion call for an unknown model", func() {
		_, err := run("Hello\n", "--model", "GPT-NOPE")
		Expect(errors.Is(err, modelconf.ErrConfigurationNotFound)).To(BeTrue())
		Expect(server.Prompts()).To(BeEmpty())
	})

	It("reports a failed reply and keeps chatting", func() {
		server.script("!500", "Recovered<|endoftext|>")

		out, err := run("Hello\nHello again\n", "--storage", "memory")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("generation failed"))
		Expect(out).To(ContainSubstring("Recovered"))

		prompts := server.Prompts()
		Expect(prompts).To(HaveLen(2))
		Expect(prompts[1]).NotTo(ContainSubstring("<|prompter|>Hello<|assistant|><|prompter|>"))
		Expect(prompts[1]).To(HaveSuffix("<|prompter|>Hello again<|assistant|>"))
	})

	It("handles slash commands", func() {
		out, err := run("/transcript\n/model PYTHIA_3B_DEDUPED_SFT_R1\n/model\n/bogus\n/clear\n", "--storage", "memory")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("The following is a conversation"))
		Expect(out).To(ContainSubstring("Switched to"))
		Expect(out).To(ContainSubstring("PYTHIA_3B_DEDUPED_SFT_R1"))
		Expect(out).To(ContainSubstring("unknown command /bogus"))
		Expect(out).To(ContainSubstring("Conversation cleared"))
		Expect(server.Prompts()).To(BeEmpty())
	})

	It("uses the configured bot name", func() {
		out, err := run("/transcript\n", "--storage", "memory", "--bot-name", "Joi")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("named Joi"))
	})
})

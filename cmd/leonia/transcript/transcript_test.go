package transcriptcmder_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	transcriptcmder "github.com/papercomputeco/leonia/cmd/leonia/transcript"
	"github.com/papercomputeco/leonia/pkg/dotdir"
	"github.com/papercomputeco/leonia/pkg/merkle"
	"github.com/papercomputeco/leonia/pkg/storage/sqlite"
	testutils "github.com/papercomputeco/leonia/pkg/utils/test"
)

var _ = Describe("transcript", func() {
	var (
		configDir string
		first     *merkle.Node
		head      *merkle.Node
		branch    *merkle.Node
		start     time.Time
	)

	// addBranch resumes from the first turn with a different question and
	// follows it up, so the newest turn sits on a second branch.
	addBranch := func() {
		ctx := context.Background()
		driver, err := sqlite.NewSQLiteDriver(ctx, filepath.Join(configDir, "leonia.db"))
		Expect(err).NotTo(HaveOccurred())
		defer driver.Close()

		alt := testutils.NewTestTurn("Why use it?", first, start.Add(2*time.Minute))
		branch = testutils.NewTestTurn("And then?", alt, start.Add(3*time.Minute))
		for _, n := range []*merkle.Node{alt, branch} {
			_, err := driver.Put(ctx, n)
			Expect(err).NotTo(HaveOccurred())
		}
	}

	BeforeEach(func() {
		var err error
		configDir, err = os.MkdirTemp("", "leonia-transcript-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { os.RemoveAll(configDir) })

		GinkgoT().Setenv("XDG_DATA_HOME", "")
		GinkgoT().Setenv("LEONIA_SQLITE", "")

		ctx := context.Background()
		driver, err := sqlite.NewSQLiteDriver(ctx, filepath.Join(configDir, "leonia.db"))
		Expect(err).NotTo(HaveOccurred())
		defer driver.Close()

		start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		first = testutils.NewTestTurn("What is Go?", nil, start)
		head = testutils.NewTestTurn("Who made it?", first, start.Add(time.Minute))
		for _, n := range []*merkle.Node{first, head} {
			_, err := driver.Put(ctx, n)
			Expect(err).NotTo(HaveOccurred())
		}
	})

	run := func(args ...string) (string, error) {
		cmd := transcriptcmder.NewTranscriptCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .leonia/ config directory")
		cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(GinkgoWriter)
		cmd.SetArgs(append(args, "--config-dir", configDir))

		err := cmd.Execute()
		return out.String(), err
	}

	Describe("list", func() {
		It("lists stored sessions", func() {
			out, err := run("list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring(testutils.TestSession))
			Expect(out).To(ContainSubstring("DISTILGPT2"))
			Expect(out).To(ContainSubstring("2 turns"))
		})

		It("counts conversations and branch tips", func() {
			out, err := run("list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("1 conversations, 1 branch tips"))
			Expect(out).NotTo(ContainSubstring(head.Hash[:12]))
		})

		It("lists every branch tip with its turn count", func() {
			addBranch()

			out, err := run("list", "--tips")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("1 conversations, 2 branch tips"))
			Expect(out).To(ContainSubstring(head.Hash[:12]))
			Expect(out).To(ContainSubstring(branch.Hash[:12]))
			Expect(out).To(ContainSubstring("3 turns"))
		})

		It("reports an empty store", func() {
			out, err := run("list", "--storage", "memory")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("No recorded sessions"))
		})
	})

	Describe("show", func() {
		It("prints the conversation oldest turn first", func() {
			out, err := run("show", testutils.TestSession, "--raw")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("# Session " + testutils.TestSession))
			Expect(out).To(ContainSubstring("2 turns"))

			first := bytes.Index([]byte(out), []byte("**you:** What is Go?"))
			second := bytes.Index([]byte(out), []byte("**you:** Who made it?"))
			Expect(first).To(BeNumerically(">=", 0))
			Expect(second).To(BeNumerically(">", first))
			Expect(out).To(ContainSubstring("**bot:** ok Who made it?"))
		})

		It("omits the branch section for a linear conversation", func() {
			out, err := run("show", testutils.TestSession, "--raw")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).NotTo(ContainSubstring("## Branches"))
		})

		It("lists forks and other endings of a branched conversation", func() {
			addBranch()

			out, err := run("show", testutils.TestSession, "--raw")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("3 turns, 1 branch points, 4 turns in all"))
			Expect(out).To(ContainSubstring("## Branches"))
			Expect(out).To(ContainSubstring("after *What is Go?*: 2 continuations, 3 turns below"))
			Expect(out).To(ContainSubstring("other ending `" + head.Hash[:12] + "` (2 turns): *Who made it?*"))
			Expect(out).To(ContainSubstring("**you:** And then?"))
		})

		It("defaults to the last chat session", func() {
			Expect(dotdir.NewManager().SaveChatState(&dotdir.ChatState{
				Session: testutils.TestSession,
				Head:    head.Hash,
			}, configDir)).To(Succeed())

			out, err := run("show", "--raw")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("What is Go?"))
		})

		It("fails without a session to show", func() {
			_, err := run("show")
			Expect(err).To(MatchError(ContainSubstring("no recent chat session")))
		})

		It("fails for unknown sessions", func() {
			_, err := run("show", "nope", "--raw")
			Expect(err).To(MatchError(ContainSubstring("has no stored turns")))
		})
	})
})

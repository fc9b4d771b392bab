package transcriptcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/leonia/cmd/leonia/cmdutil"
	"github.com/papercomputeco/leonia/pkg/cliui"
	"github.com/papercomputeco/leonia/pkg/dotdir"
	"github.com/papercomputeco/leonia/pkg/merkle"
	"github.com/papercomputeco/leonia/pkg/storage"
)

const showLongDesc string = `Show a recorded chat session.

Prints the conversation that ends at the session's latest turn, rendered as
markdown. Without a session id, shows the session "leonia chat --resume"
would continue. When the conversation branched, the turns where it did and
the other endings are listed after it.

Examples:
  leonia transcript show
  leonia transcript show 5f0c7e1a-... --raw`

const showShortDesc string = "Show a recorded chat session"

func newShowCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show [session]",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cmdutil.Load(cmd, cmdutil.StorageFlags...)
			if err != nil {
				return err
			}

			session := ""
			if len(args) == 1 {
				session = args[0]
			}
			return runShow(cmd.Context(), cmd.OutOrStdout(), settings, session, raw)
		},
	}

	cmdutil.AddFlags(cmd, cmdutil.StorageFlags...)
	cmd.Flags().BoolVar(&raw, "raw", false, "Print plain markdown instead of rendering it")

	return cmd
}

func runShow(ctx context.Context, w io.Writer, settings *cmdutil.Settings, session string, raw bool) error {
	if session == "" {
		state, err := dotdir.NewManager().LoadChatState(settings.ConfigDir)
		if err != nil {
			return fmt.Errorf("loading chat state: %w", err)
		}
		if state == nil {
			return errors.New("no recent chat session; pass a session id")
		}
		session = state.Session
	}

	driver, err := settings.OpenStorage(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	head, err := driver.Head(ctx, session)
	if err != nil {
		if errors.Is(err, storage.ErrNoTurns) {
			return fmt.Errorf("session %s has no stored turns", session)
		}
		return err
	}

	// Load from the root so sibling branches of head are included.
	ancestry, err := driver.Ancestry(ctx, head.Hash)
	if err != nil {
		return err
	}
	dag, err := merkle.LoadDag(ctx, driver, ancestry[len(ancestry)-1].Hash)
	if err != nil {
		return err
	}

	doc := render(session, dag, head)
	if raw {
		fmt.Fprint(w, doc)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(doc)
	if err != nil {
		fmt.Fprint(w, doc)
		return nil
	}
	fmt.Fprint(w, rendered)
	return nil
}

// render writes the conversation ending at head as markdown.
func render(session string, dag *merkle.Dag, head *merkle.Node) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Session %s\n\n", session)
	turns := len(dag.Conversation(head.Hash))
	fmt.Fprintf(&b, "*%s, %d turns", head.Bucket.Configuration, turns)
	if points := dag.BranchPoints(); len(points) > 0 {
		fmt.Fprintf(&b, ", %d branch points, %d turns in all", len(points), dag.Size())
	}
	b.WriteString("*\n\n")

	for _, turn := range dag.Conversation(head.Hash) {
		fmt.Fprintf(&b, "**you:** %s\n\n", turn.Bucket.Human)
		fmt.Fprintf(&b, "**bot:** %s\n\n", turn.Bucket.Bot)
	}

	renderBranches(&b, dag, head)

	return b.String()
}

// renderBranches lists where the conversation forked and the endings other
// than head. It writes nothing for a linear conversation.
func renderBranches(b *strings.Builder, dag *merkle.Dag, head *merkle.Node) {
	var forks []*merkle.DagNode
	_ = dag.Walk(func(n *merkle.DagNode) (bool, error) {
		if dag.IsBranching(n.Hash) {
			forks = append(forks, n)
		}
		return true, nil
	})
	if len(forks) == 0 {
		return
	}

	b.WriteString("## Branches\n\n")
	for _, fork := range forks {
		fmt.Fprintf(b, "- after *%s*: %d continuations, %d turns below\n",
			fork.Bucket.Human, len(fork.Children), len(dag.Descendants(fork.Hash)))
	}
	b.WriteString("\n")

	for _, leaf := range dag.Leaves() {
		if leaf.Hash == head.Hash {
			continue
		}
		fmt.Fprintf(b, "- other ending `%s` (%d turns): *%s*\n",
			shortHash(leaf.Hash), len(dag.Conversation(leaf.Hash)), leaf.Bucket.Human)
	}
	b.WriteString("\n")
}

// Package chatcmder provides the chat command: an interactive conversation
// with a model configuration, generated incrementally and recorded in the
// transcript store.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/leonia/cmd/leonia/cmdutil"
	"github.com/papercomputeco/leonia/pkg/cliui"
	"github.com/papercomputeco/leonia/pkg/completion"
	"github.com/papercomputeco/leonia/pkg/config"
	"github.com/papercomputeco/leonia/pkg/dotdir"
	"github.com/papercomputeco/leonia/pkg/engine"
	"github.com/papercomputeco/leonia/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/leonia/pkg/eventstream/utils"
	"github.com/papercomputeco/leonia/pkg/merkle"
	"github.com/papercomputeco/leonia/pkg/modelconf"
	"github.com/papercomputeco/leonia/pkg/storage"
	"github.com/papercomputeco/leonia/pkg/transcript"
	"github.com/papercomputeco/leonia/pkg/utils"
	"github.com/papercomputeco/leonia/pkg/worker"
)

type chatCommander struct {
	resume  bool
	session string

	settings *cmdutil.Settings
	in       io.Reader
	out      io.Writer
	logger   *slog.Logger

	interactive bool
	ddm         *dotdir.Manager
	registry    *modelconf.Registry
	svc         completion.Service
	recorder    *worker.Recorder
	eng         *engine.Engine
}

var chatFlags = []string{
	config.FlagModel,
	config.FlagCatalog,
	config.FlagProvider,
	config.FlagTarget,
	config.FlagAPIKey,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagEventsProvider,
	config.FlagBrokers,
	config.FlagTopic,
	config.FlagBotName,
	config.FlagLogFile,
}

const chatLongDesc string = `Start an interactive chat with a model configuration.

Each reply is generated a few tokens at a time and printed as it arrives.
Committed turns are recorded in the transcript store and, when configured,
published as events.

Commands inside the chat:
  /clear          Forget the conversation and start over
  /model [NAME]   Show or switch the model configuration
  /transcript     Print the raw transcript sent to the model
  /help           List commands
  /exit           Quit (Ctrl+D works too)

Ctrl+C while a reply is being generated discards that reply.

Examples:
  leonia chat
  leonia chat --model PYTHIA_3B_DEDUPED_SFT_R1 --provider openai --target http://localhost:8080
  leonia chat --resume`

const chatShortDesc string = "Interactive chat with a model configuration"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{
		ddm: dotdir.NewManager(),
	}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.settings, err = cmdutil.Load(cmd, chatFlags...)
			if err != nil {
				return err
			}

			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.interactive = isTerminal(cmder.in)

			log, closeLog, err := cmder.settings.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()
			cmder.logger = log

			return cmder.run(cmd.Context())
		},
	}

	cmdutil.AddFlags(cmd, chatFlags...)
	cmd.Flags().BoolVarP(&cmder.resume, "resume", "r", false, "Resume the last chat session")
	cmd.Flags().StringVar(&cmder.session, "session", "", "Resume the chat session with this id")
	cmd.MarkFlagsMutuallyExclusive("resume", "session")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	var err error

	c.registry, err = c.settings.Registry()
	if err != nil {
		return err
	}

	c.svc, err = c.settings.CompletionService()
	if err != nil {
		return err
	}
	defer c.svc.Close()

	driver, err := c.settings.OpenStorage(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	pool, err := worker.NewPool(&worker.Config{
		Driver:    driver,
		Publisher: publisher,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	session, head, err := c.resolveSession(ctx, driver)
	if err != nil {
		return err
	}

	name := c.settings.GetString("model.name")
	if head != nil && !modelconf.SameName(head.Bucket.Configuration, name) {
		c.logger.Warn("resumed session uses a different model configuration",
			"session", session,
			"configuration", head.Bucket.Configuration,
		)
		name = head.Bucket.Configuration
	}

	conf, err := c.registry.Get(name)
	if err != nil {
		return err
	}

	c.recorder = worker.NewRecorder(pool, session, head)

	var baseline *transcript.Transcript
	if head != nil {
		t := transcript.Transcript(head.Transcript)
		baseline = &t
	}
	if err := c.useConfiguration(conf, baseline); err != nil {
		return err
	}

	c.banner(head)

	return c.loop(ctx)
}

func (c *chatCommander) newPublisher() (eventstream.Publisher, error) {
	p, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		Provider: c.settings.GetString("events.provider"),
		Brokers:  config.Brokers(c.settings.Viper),
		Topic:    c.settings.GetString("events.topic"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}
	return p, nil
}

// resolveSession picks the session id and the stored turn to continue from.
func (c *chatCommander) resolveSession(ctx context.Context, driver storage.Driver) (string, *merkle.Node, error) {
	switch {
	case c.session != "":
		head, err := driver.Head(ctx, c.session)
		if err != nil {
			if errors.Is(err, storage.ErrNoTurns) {
				return "", nil, fmt.Errorf("session %s has no stored turns", c.session)
			}
			return "", nil, fmt.Errorf("loading session: %w", err)
		}
		return c.session, head, nil

	case c.resume:
		state, err := c.ddm.LoadChatState(c.settings.ConfigDir)
		if err != nil {
			return "", nil, fmt.Errorf("loading chat state: %w", err)
		}
		if state == nil {
			c.logger.Info("no chat to resume, starting a new session")
			break
		}
		if state.Head == "" {
			return state.Session, nil, nil
		}

		head, err := driver.Get(ctx, state.Head)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.logger.Warn("last turn is not in the transcript store, starting over",
					"session", state.Session,
					"hash", state.Head,
				)
				return state.Session, nil, nil
			}
			return "", nil, fmt.Errorf("loading last turn: %w", err)
		}
		return state.Session, head, nil
	}

	return uuid.NewString(), nil, nil
}

// useConfiguration replaces the engine. A nil baseline starts from the seed
// preamble of conf.
func (c *chatCommander) useConfiguration(conf modelconf.Configuration, baseline *transcript.Transcript) error {
	if botName := c.settings.GetString("chat.bot_name"); botName != "" {
		conf.BotName = botName
	}

	opts := []engine.Option{
		engine.WithLogger(c.logger),
		engine.WithObserver(c.recorder),
	}
	if baseline != nil {
		opts = append(opts, engine.WithBaseline(*baseline))
	}

	eng, err := engine.New(conf, c.svc, opts...)
	if err != nil {
		return fmt.Errorf("starting conversation: %w", err)
	}

	if conf.Name == modelconf.TestingConfiguration {
		fmt.Fprintf(c.out, "  %s\n",
			cliui.WarnStyle.Render(conf.Name+" is for testing only and produces gibberish."),
		)
	}

	c.eng = eng
	return nil
}

func (c *chatCommander) banner(head *merkle.Node) {
	fmt.Fprintln(c.out)
	if head != nil {
		fmt.Fprintf(c.out, "  %s Resuming from %s\n",
			cliui.SuccessMark,
			cliui.ValueStyle.Render(head.ShortHash()),
		)
	} else {
		fmt.Fprintf(c.out, "  %s New conversation\n", cliui.DimStyle.Render("●"))
	}

	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Model:"), cliui.ValueStyle.Render(c.eng.Configuration().Name))
	fmt.Fprintf(c.out, "  %s %s\n\n", cliui.KeyStyle.Render("Session:"), cliui.DimStyle.Render(c.recorder.Session()))

	if c.interactive {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /help for commands, /exit or Ctrl+D to quit."))
	}
}

func (c *chatCommander) loop(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for ctx.Err() == nil {
		if c.interactive {
			fmt.Fprint(c.out, cliui.HumanPrompt())
		}
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := c.command(input)
			if err != nil {
				fmt.Fprintf(c.out, "  %s %v\n", cliui.FailMark, err)
			}
			if quit {
				break
			}
			continue
		}

		c.turn(ctx, input)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// command runs a slash command. It reports whether the chat should end.
func (c *chatCommander) command(input string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/exit", "/quit":
		return true, nil

	case "/clear":
		c.eng.Reset()
		fmt.Fprintf(c.out, "  %s Conversation cleared\n\n", cliui.SuccessMark)

	case "/model":
		if arg == "" {
			fmt.Fprintf(c.out, "  %s %s\n\n", cliui.KeyStyle.Render("Model:"), c.eng.Configuration().Name)
			return false, nil
		}

		conf, err := c.registry.Get(arg)
		if err != nil {
			return false, err
		}
		if err := c.useConfiguration(conf, nil); err != nil {
			return false, err
		}
		fmt.Fprintf(c.out, "  %s Switched to %s\n\n", cliui.SuccessMark, cliui.ValueStyle.Render(conf.Name))

	case "/transcript":
		fmt.Fprintf(c.out, "%s\n\n", c.eng.Transcript())

	case "/help":
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("/clear  /model [NAME]  /transcript  /help  /exit"))

	default:
		return false, fmt.Errorf("unknown command %s, try /help", name)
	}

	return false, nil
}

// turn generates and prints one bot reply. Failures are reported and the
// conversation continues from the last committed turn.
func (c *chatCommander) turn(ctx context.Context, msg string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	stream, err := c.eng.Answer(msg)
	if err != nil {
		fmt.Fprintf(c.out, "  %s %v\n", cliui.FailMark, err)
		return
	}

	fmt.Fprint(c.out, cliui.BotLabel(c.eng.Configuration().BotName))

	start := time.Now()
	var reply strings.Builder
	for chunk, err := range stream.Chunks(turnCtx) {
		if err != nil {
			fmt.Fprintln(c.out)
			if errors.Is(err, context.Canceled) {
				fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("interrupted, reply discarded"))
				return
			}
			fmt.Fprintf(c.out, "  %s %v\n\n", cliui.FailMark, err)
			return
		}

		fmt.Fprint(c.out, chunk)
		reply.WriteString(chunk)
	}
	elapsed := time.Since(start)

	fmt.Fprintf(c.out, "\n  %s\n\n",
		cliui.DimStyle.Render(cliui.FormatTurnStats(len(strings.Fields(reply.String())), elapsed)),
	)

	c.saveState()
}

func (c *chatCommander) saveState() {
	state := &dotdir.ChatState{
		Session:       c.recorder.Session(),
		Configuration: c.eng.Configuration().Name,
		UpdatedAt:     time.Now().UTC(),
	}
	if head := c.recorder.Head(); head != nil {
		state.Head = head.Hash
	}

	if err := c.ddm.SaveChatState(state, c.settings.ConfigDir); err != nil {
		c.logger.Warn("could not save chat state", "error", err)
		return
	}

	c.logger.Debug("chat state saved",
		"session", state.Session,
		"head", utils.Truncate(state.Head, 12),
	)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

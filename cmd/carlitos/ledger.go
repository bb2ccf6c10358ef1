package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/carlitos-finanzas/carlitos/internal/ledger"
	"github.com/carlitos-finanzas/carlitos/internal/progress"
	"github.com/carlitos-finanzas/carlitos/internal/remote"
	"github.com/carlitos-finanzas/carlitos/pkg/constants"
	"github.com/carlitos-finanzas/carlitos/pkg/mentor"
	"github.com/carlitos-finanzas/carlitos/pkg/projection"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

func (a *app) newMentorCmd() *cobra.Command {
	var (
		raw  mentor.RawAnswers
		save bool
	)

	cmd := &cobra.Command{
		Use:   "mentor",
		Short: "Answer the onboarding quiz and get a mentor",
		Example: `  carlitos mentor --goal "quiero ahorrar para un viaje"
  carlitos mentor --knowledge basico --emotion empezando --style juegos --discipline baja`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mc, err := a.conf.MentorConfig()
			if err != nil {
				return err
			}
			scorer, err := mentor.NewScorer(mc, nil)
			if err != nil {
				return err
			}

			assignment := scorer.Evaluate(raw.Parse())
			a.logger.Debug("mentor assigned",
				zap.String("op", "main.mentor"),
				zap.String("persona", string(assignment.Persona.ID)),
				zap.String("keyword", assignment.Keyword),
			)

			if save {
				err := a.withLedger(cmd.Context(), func(ctx context.Context, svc *ledger.Service) error {
					_, err := svc.SetMentor(ctx, string(assignment.Persona.ID))
					return err
				})
				if err != nil {
					return err
				}
			}

			w, err := a.writer()
			if err != nil {
				return err
			}
			return w.Assignment(assignment)
		},
	}

	cmd.Flags().StringVar(&raw.Knowledge, "knowledge", "", "financial knowledge: basic, intermediate, advanced")
	cmd.Flags().StringVar(&raw.Emotion, "emotion", "", "where you are with money: starting, learning, improving, optimizing")
	cmd.Flags().StringVar(&raw.Style, "style", "", "learning style: games, videos, examples, practical")
	cmd.Flags().StringVar(&raw.Discipline, "discipline", "", "saving discipline: low, medium, constant, high")
	cmd.Flags().StringVar(&raw.PrimaryGoal, "goal", "", "primary goal in your own words")
	cmd.Flags().BoolVar(&save, "save", true, "store the mentor on the profile")

	personas := &cobra.Command{
		Use:   "personas",
		Short: "List the mentor personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.writer()
			if err != nil {
				return err
			}
			return w.Personas(mentor.Personas())
		},
	}
	cmd.AddCommand(personas)
	return cmd
}

func (a *app) newTransactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Record and list income and expenses",
	}
	cmd.AddCommand(a.newTransactionAddCmd(), a.newTransactionListCmd(),
		a.newTransactionDeleteCmd(), a.newTransactionExportCmd())
	return cmd
}

func (a *app) newTransactionAddCmd() *cobra.Command {
	var (
		in     ledger.TransactionInput
		amount string
		date   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Example: `  carlitos transactions add --kind ingreso --amount 850000 --category Sueldo
  carlitos transactions add --kind gasto --amount 12990.5 --note "almuerzo" --date 2025-03-14`,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(strings.TrimSpace(amount))
			if err != nil {
				return fmt.Errorf("%w: invalid amount %q", ledger.ErrInvalidTransaction, amount)
			}
			in.Amount = value

			if date != "" {
				d, err := time.ParseInLocation(dateLayout, date, time.Local)
				if err != nil {
					return fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ledger.ErrInvalidTransaction, date)
				}
				in.Date = &d
			}

			return a.withLedger(cmd.Context(), func(ctx context.Context, svc *ledger.Service) error {
				tx, reward, err := svc.AddTransaction(ctx, in)
				if err != nil {
					return err
				}
				w, err := a.writer()
				if err != nil {
					return err
				}
				if err := w.Transactions([]ledger.Transaction{tx}); err != nil {
					return err
				}
				a.logger.Info("transaction recorded",
					zap.String("op", "main.transactionAdd"),
					zap.String("id", tx.ID.String()),
					zap.Int("xp", reward.XP),
					zap.Int("coins", reward.Coins),
				)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Kind, "kind", "", "ingreso or gasto")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, sign is ignored")
	cmd.Flags().StringVar(&in.Category, "category", "", "category (defaults to Varios or Gastos Varios)")
	cmd.Flags().StringVar(&in.Note, "note", "", "free text note")
	cmd.Flags().StringVar(&date, "date", "", "date, YYYY-MM-DD (defaults to now)")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (a *app) newTransactionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(ctx context.Context, svc *ledger.Service) error {
				txs, err := svc.Transactions(ctx)
				if err != nil {
					return err
				}
				w, err := a.writer()
				if err != nil {
					return err
				}
				return w.Transactions(txs)
			})
		},
	}
}

func (a *app) newTransactionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			return a.withLedger(cmd.Context(), func(ctx context.Context, svc *ledger.Service) error {
				return svc.DeleteTransaction(ctx, id)
			})
		},
	}
}

func (a *app) newTransactionExportCmd() *cobra.Command {
	var (
		format string
		file   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions as CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != constants.OutputFormatCSV && format != constants.OutputFormatJSON {
				return fmt.Errorf("unsupported export format %q, expected csv or json", format)
			}

			return a.withLedger(cmd.Context(), func(ctx context.Context, svc *ledger.Service) error {
				txs, err := svc.Transactions(ctx)
				if err != nil {
					return err
				}

				var out io.Writer = a.out
				if file != "" {
					f, err := os.Create(file)
					if err != nil {
						return fmt.Errorf("failed to create export file: %w", err)
					}
					defer f.Close()
					out = f
				}

				if format == constants.OutputFormatJSON {
					err = ledger.ExportJSON(out, txs)
				} else {
					err = ledger.ExportCSV(out, txs)
				}
				if err != nil {
					return fmt.Errorf("failed to export transactions: %w", err)
				}
				a.logger.Debug("exported transactions",
					zap.String("op", "main.transactionExport"),
					zap.String("format", format),
					zap.Int("count", len(txs)),
				)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", constants.OutputFormatCSV, "csv or json")
	cmd.Flags().StringVar(&file, "file", "", "write to this file instead of stdout")
	return cmd
}

func (a *app) newGoalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Manage savings and spending goals",
	}

	var (
		in     ledger.GoalInput
		target string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(strings.TrimSpace(target))
			if err != nil {
				return fmt.Errorf("%w: invalid target %q", ledger.ErrInvalidGoal, target)
			}
			in.Target = value
			return a.withLedger(cmd.Context(), func(ctx context.Context, svc *ledger.Service) error {
				goal, err := svc.AddGoal(ctx, in)
				if err != nil {
					return err
				}
				w, err := a.writer()
				if err != nil {
					return err
				}
				return w.Goals([]ledger.Goal{goal})
			})
		},
	}
	add.Flags().StringVar(&in.Title, "title", "", "goal title")
	add.Flags().StringVar(&in.Kind, "kind", "", "ahorro (default) or reduccion")
	add.Flags().StringVar(&target, "target", "", "target amount or monthly spending limit")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("target")

	list := &cobra.Command{
		Use:   "list",
		Short: "List goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(ctx context.Context, svc *ledger.Service) error {
				goals, err := svc.Goals(ctx)
				if err != nil {
					return err
				}
				w, err := a.writer()
				if err != nil {
					return err
				}
				return w.Goals(goals)
			})
		},
	}

	var monthly, ratePercent float64
	prog := &cobra.Command{
		Use:   "progress <id>",
		Short: "Show how far a goal is from its target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			rate := a.conf.Simulator.RatePercent
			if cmd.Flags().Changed("rate") {
				rate = ratePercent
			}
			return a.withLedger(cmd.Context(), func(ctx context.Context, svc *ledger.Service) error {
				gp, err := svc.GoalProgress(ctx, id, monthly, projection.PercentToRate(rate))
				if err != nil {
					return err
				}
				w, err := a.writer()
				if err != nil {
					return err
				}
				return w.GoalProgress(gp)
			})
		},
	}
	prog.Flags().Float64Var(&monthly, "monthly", 0, "monthly contribution used for the estimate")
	prog.Flags().Float64Var(&ratePercent, "rate", 0, "annual rate in percent (defaults to simulator.ratePercent)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			return a.withLedger(cmd.Context(), func(ctx context.Context, svc *ledger.Service) error {
				return svc.DeleteGoal(ctx, id)
			})
		},
	}

	cmd.AddCommand(add, list, prog, del)
	return cmd
}

func (a *app) newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show XP, coins and level",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(ctx context.Context, svc *ledger.Service) error {
				profile, err := svc.Profile(ctx)
				if err != nil {
					return err
				}
				w, err := a.writer()
				if err != nil {
					return err
				}
				return w.Profile(profile)
			})
		},
	}

	var difficulty string
	lessons := &cobra.Command{
		Use:   "lessons",
		Short: "Show the lesson map",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(ctx context.Context, svc *ledger.Service) error {
				list, err := svc.Lessons(ctx, progress.Difficulty(difficulty))
				if err != nil {
					return err
				}
				w, err := a.writer()
				if err != nil {
					return err
				}
				return w.Lessons(list)
			})
		},
	}
	lessons.Flags().StringVar(&difficulty, "difficulty", "", "beginner, med or adv")

	complete := &cobra.Command{
		Use:   "complete <lesson>",
		Short: "Complete a lesson and collect its XP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(ctx context.Context, svc *ledger.Service) error {
				profile, err := svc.CompleteLesson(ctx, args[0])
				if err != nil {
					return err
				}
				w, err := a.writer()
				if err != nil {
					return err
				}
				return w.Profile(profile)
			})
		},
	}
	lessons.AddCommand(complete)

	cmd.AddCommand(lessons)
	return cmd
}

func (a *app) newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy the ledger to or from the remote document store",
	}

	push := &cobra.Command{
		Use:   "push",
		Short: "Upload the local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.conf.SyncEnabled() {
				return fmt.Errorf("remote sync is disabled, set sync.enabled and sync.address")
			}
			cache := remote.NewRedisCache(a.conf.Sync.Address)
			defer cache.Close()
			if err := remote.CheckReachable(cmd.Context(), cache, constants.DefaultSyncTimeout); err != nil {
				return err
			}
			return a.withLedger(cmd.Context(), func(ctx context.Context, svc *ledger.Service) error {
				return svc.Sync(ctx)
			})
		},
	}

	pull := &cobra.Command{
		Use:   "pull",
		Short: "Download the remote state into the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.conf.SyncEnabled() {
				return fmt.Errorf("remote sync is disabled, set sync.enabled and sync.address")
			}
			cache := remote.NewRedisCache(a.conf.Sync.Address)
			defer cache.Close()
			if err := remote.CheckReachable(cmd.Context(), cache, constants.DefaultSyncTimeout); err != nil {
				return err
			}
			syncer := remote.NewSyncer(a.logger, cache, a.conf.Sync.KeyPrefix)

			snap, err := syncer.Pull(cmd.Context(), a.conf.Sync.User)
			if err != nil {
				return err
			}
			return a.withLedger(cmd.Context(), func(ctx context.Context, svc *ledger.Service) error {
				return svc.Restore(ctx, snap)
			})
		},
	}

	cmd.AddCommand(push, pull)
	return cmd
}

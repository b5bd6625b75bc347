package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/and161185/dittokanban/internal/appstate"
	"github.com/and161185/dittokanban/internal/dnd"
	"github.com/and161185/dittokanban/internal/forms"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/spf13/cobra"
)

func parseID(what, s string) (uuid.UUID, error) {
	id, err := uuid.FromString(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

// parsePriority accepts a level number, an English name or the display label.
func parsePriority(s string) (model.Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case "1", "low", "baixa":
		return model.PriorityLow, nil
	case "2", "medium", "média", "media":
		return model.PriorityMedium, nil
	case "3", "high", "alta":
		return model.PriorityHigh, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return model.Priority(n), nil
	}
	return 0, errors.New(forms.MsgInvalidPriority)
}

// boardWith returns the fully loaded board of st's user that holds the column
// matching pred.
func boardWith(ctx context.Context, a *app, st appstate.State, pred func(model.Column) bool) (*model.Board, error) {
	for _, b := range st.Boards {
		full := a.data.GetBoardByID(ctx, b.ID)
		if full == nil {
			continue
		}
		for _, c := range full.Columns.Items() {
			if pred(c) {
				return full, nil
			}
		}
	}
	return nil, errors.New("not found on any of your boards")
}

func printBoard(a *app, b *model.Board) {
	fmt.Fprintf(a.out, "%s  %s\n", b.ID, b.Title)
	for _, c := range b.Columns.Items() {
		fmt.Fprintf(a.out, "\n  [%s] %s (%d)\n", c.ID, c.Title, c.Tasks.Len())
		for _, t := range c.Tasks.Items() {
			fmt.Fprintf(a.out, "    %d. %s  %s  [%s]\n", model.OrderOf(t), t.ID, t.Title, priorityLabel(t.Priority))
		}
	}
}

func boardsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List and manage boards",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your boards, newest first",
			Args:  cobra.NoArgs,
			RunE: runner(g, func(ctx context.Context, a *app, _ []string) error {
				st, err := a.signedIn(ctx)
				if err != nil {
					return err
				}
				for _, b := range st.Boards {
					fmt.Fprintf(a.out, "%s  %s\n", b.ID, b.Title)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "create TITLE",
			Short: "Create a board",
			Args:  cobra.ExactArgs(1),
			RunE: runner(g, func(ctx context.Context, a *app, args []string) error {
				st, err := a.signedIn(ctx)
				if err != nil {
					return err
				}
				f := forms.BoardForm{Title: args[0]}
				in, err := f.Create(st.User.ID)
				if err != nil {
					return errors.New(forms.Message(err))
				}
				b := a.data.CreateBoard(ctx, in)
				if b == nil {
					return failed("create board")
				}
				a.state.AddBoard(*b)
				a.printJSON(b)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "show BOARD",
			Short: "Show a board with its columns and tasks",
			Args:  cobra.ExactArgs(1),
			RunE: runner(g, func(ctx context.Context, a *app, args []string) error {
				id, err := parseID("board", args[0])
				if err != nil {
					return err
				}
				if _, err := a.signedIn(ctx); err != nil {
					return err
				}
				b := a.data.GetBoardByID(ctx, id)
				if b == nil {
					return failed("load board")
				}
				a.state.SetCurrentBoard(b)
				printBoard(a, b)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "rename BOARD TITLE",
			Short: "Rename a board",
			Args:  cobra.ExactArgs(2),
			RunE: runner(g, func(ctx context.Context, a *app, args []string) error {
				id, err := parseID("board", args[0])
				if err != nil {
					return err
				}
				f := forms.BoardForm{Title: args[1]}
				upd, err := f.Update()
				if err != nil {
					return errors.New(forms.Message(err))
				}
				if _, err := a.signedIn(ctx); err != nil {
					return err
				}
				b := a.data.UpdateBoard(ctx, id, upd)
				if b == nil {
					return failed("rename board")
				}
				a.state.UpdateBoard(*b)
				a.printJSON(b)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete BOARD",
			Short: "Delete a board with its columns and tasks",
			Args:  cobra.ExactArgs(1),
			RunE: runner(g, func(ctx context.Context, a *app, args []string) error {
				id, err := parseID("board", args[0])
				if err != nil {
					return err
				}
				if _, err := a.signedIn(ctx); err != nil {
					return err
				}
				if !a.data.DeleteBoard(ctx, id) {
					return failed("delete board")
				}
				a.state.RemoveBoard(id)
				fmt.Fprintln(a.out, "deleted", id)
				return nil
			}),
		},
	)
	return cmd
}

func columnCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "column",
		Short: "Manage the columns of a board",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add BOARD TITLE",
			Short: "Append a column to a board",
			Args:  cobra.ExactArgs(2),
			RunE: runner(g, func(ctx context.Context, a *app, args []string) error {
				id, err := parseID("board", args[0])
				if err != nil {
					return err
				}
				if _, err := a.signedIn(ctx); err != nil {
					return err
				}
				b := a.data.GetBoardByID(ctx, id)
				if b == nil {
					return failed("load board")
				}
				f := forms.ColumnForm{Title: args[1]}
				in, err := f.Create(b)
				if err != nil {
					return errors.New(forms.Message(err))
				}
				c := a.data.CreateColumn(ctx, in)
				if c == nil {
					return failed("create column")
				}
				a.printJSON(c)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "rename COLUMN TITLE",
			Short: "Rename a column",
			Args:  cobra.ExactArgs(2),
			RunE: runner(g, func(ctx context.Context, a *app, args []string) error {
				id, err := parseID("column", args[0])
				if err != nil {
					return err
				}
				f := forms.ColumnForm{Title: args[1]}
				upd, err := f.Update()
				if err != nil {
					return errors.New(forms.Message(err))
				}
				if _, err := a.signedIn(ctx); err != nil {
					return err
				}
				c := a.data.UpdateColumn(ctx, id, upd)
				if c == nil {
					return failed("rename column")
				}
				a.printJSON(c)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete COLUMN",
			Short: "Delete a column and its tasks",
			Args:  cobra.ExactArgs(1),
			RunE: runner(g, func(ctx context.Context, a *app, args []string) error {
				id, err := parseID("column", args[0])
				if err != nil {
					return err
				}
				if _, err := a.signedIn(ctx); err != nil {
					return err
				}
				if !a.data.DeleteColumn(ctx, id) {
					return failed("delete column")
				}
				fmt.Fprintln(a.out, "deleted", id)
				return nil
			}),
		},
	)
	return cmd
}

type taskFlags struct {
	form     forms.TaskForm
	priority string
}

func (f *taskFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.form.Description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "priority: low, medium or high")
}

func (f *taskFlags) fill() error {
	p, err := parsePriority(f.priority)
	if err != nil {
		return err
	}
	f.form.Priority = p
	return nil
}

func taskCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(taskAddCmd(g), taskEditCmd(g), taskMoveCmd(g), taskDeleteCmd(g))
	return cmd
}

func taskAddCmd(g *globals) *cobra.Command {
	f := &taskFlags{}
	cmd := &cobra.Command{
		Use:   "add COLUMN TITLE",
		Short: "Append a task to a column",
		Args:  cobra.ExactArgs(2),
		RunE: runner(g, func(ctx context.Context, a *app, args []string) error {
			defer f.form.Reset()
			col, err := parseID("column", args[0])
			if err != nil {
				return err
			}
			f.form.Title = args[1]
			if err := f.fill(); err != nil {
				return err
			}
			in, err := f.form.Create(col)
			if err != nil {
				return errors.New(forms.Message(err))
			}
			if _, err := a.signedIn(ctx); err != nil {
				return err
			}
			t := a.data.CreateTask(ctx, in)
			if t == nil {
				return failed("create task")
			}
			a.printJSON(t)
			return nil
		}),
	}
	f.bind(cmd)
	return cmd
}

func taskEditCmd(g *globals) *cobra.Command {
	f := &taskFlags{}
	var title string
	var cmd *cobra.Command
	cmd = &cobra.Command{
		Use:   "edit TASK",
		Short: "Edit a task; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: runner(g, func(ctx context.Context, a *app, args []string) error {
			defer f.form.Reset()
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			st, err := a.signedIn(ctx)
			if err != nil {
				return err
			}
			var cur *model.Task
			if _, err := boardWith(ctx, a, st, func(c model.Column) bool {
				for _, t := range c.Tasks.Items() {
					if t.ID == id {
						cur = &t
						return true
					}
				}
				return false
			}); err != nil {
				return fmt.Errorf("task %s %w", id, err)
			}

			edited := f.form
			f.form.LoadTask(*cur)
			flags := cmd.Flags()
			if flags.Changed("title") {
				f.form.Title = title
			}
			if flags.Changed("description") {
				f.form.Description = edited.Description
			}
			if flags.Changed("priority") {
				if err := f.fill(); err != nil {
					return err
				}
			}
			upd, err := f.form.Update()
			if err != nil {
				return errors.New(forms.Message(err))
			}
			t := a.data.UpdateTask(ctx, id, upd)
			if t == nil {
				return failed("update task")
			}
			a.printJSON(t)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "task title")
	f.bind(cmd)
	return cmd
}

func taskMoveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "move TASK COLUMN",
		Short: "Move a task to the end of a column",
		Args:  cobra.ExactArgs(2),
		RunE: runner(g, func(ctx context.Context, a *app, args []string) error {
			task, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			col, err := parseID("column", args[1])
			if err != nil {
				return err
			}
			st, err := a.signedIn(ctx)
			if err != nil {
				return err
			}
			b, err := boardWith(ctx, a, st, func(c model.Column) bool { return c.ID == col })
			if err != nil {
				return fmt.Errorf("column %s %w", col, err)
			}
			a.state.SetCurrentBoard(b)

			target := dnd.NewDropTarget(dnd.NewController(a.data, a.state, b.ID, a.log), col)
			payload := dnd.NewPayload(task)
			target.DragOver(payload)
			if !target.Drop(ctx, payload) {
				return errors.New(a.state.Snapshot().Error)
			}
			printBoard(a, a.state.Snapshot().CurrentBoard)
			return nil
		}),
	}
}

func taskDeleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TASK",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: runner(g, func(ctx context.Context, a *app, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			if _, err := a.signedIn(ctx); err != nil {
				return err
			}
			if !a.data.DeleteTask(ctx, id) {
				return failed("delete task")
			}
			fmt.Fprintln(a.out, "deleted", id)
			return nil
		}),
	}
}

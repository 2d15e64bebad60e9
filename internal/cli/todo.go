package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/eleven-am/todosync/internal/app"
	"github.com/eleven-am/todosync/internal/models"
	"github.com/eleven-am/todosync/internal/router"
	"github.com/spf13/cobra"
)

func newTodoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todo",
		Aliases: []string{"todos"},
		Short:   "Manage your todo list",
	}

	cmd.AddCommand(newTodoListCmd())
	cmd.AddCommand(newTodoShowCmd())
	cmd.AddCommand(newTodoAddCmd())
	cmd.AddCommand(newTodoEditCmd())
	cmd.AddCommand(newTodoRemoveCmd())
	cmd.AddCommand(newTodoToggleCmd())
	return cmd
}

func todoPath(s *app.Session, id uint) (string, error) {
	return s.Navigator.Router().Path(router.RouteTodoDetail, "id", strconv.FormatUint(uint64(id), 10))
}

// fetchError turns the store's recorded failure into an error.
func fetchError(s *app.Session, fallback string) error {
	if msg := s.Todos.Err(); msg != "" {
		return errors.New(msg)
	}
	return errors.New(fallback)
}

func newTodoListCmd() *cobra.Command {
	var completed, pending, asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if completed && pending {
				return fmt.Errorf("--completed and --pending are mutually exclusive")
			}

			return withView(cmd, "/", func(ctx context.Context, s *app.Session) error {
				s.Todos.FetchTodos(ctx)
				if msg := s.Todos.Err(); msg != "" {
					return errors.New(msg)
				}

				items := s.Todos.Todos()
				switch {
				case completed:
					items = s.Todos.Completed()
				case pending:
					items = s.Todos.Pending()
				}

				if asJSON {
					return writeJSON(cmd.OutOrStdout(), items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No todos")
					return nil
				}
				return writeTable(cmd.OutOrStdout(), items)
			})
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "only show completed todos")
	cmd.Flags().BoolVar(&pending, "pending", false, "only show pending todos")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTodoShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, s *app.Session) error {
				path, err := todoPath(s, id)
				if err != nil {
					return err
				}
				return withViewSession(ctx, s, path, func() error {
					todo := s.Todos.FetchTodo(ctx, id)
					if todo == nil {
						return fetchError(s, fmt.Sprintf("todo %d not found", id))
					}
					if asJSON {
						return writeJSON(cmd.OutOrStdout(), todo)
					}
					writeDetail(cmd.OutOrStdout(), *todo)
					return nil
				})
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTodoAddCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withView(cmd, "/", func(ctx context.Context, s *app.Session) error {
				todo, err := s.Todos.CreateTodo(ctx, args[0], description)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created todo %d: %s\n", todo.ID, todo.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "todo description")
	return cmd
}

func newTodoEditCmd() *cobra.Command {
	var (
		title, description string
		completed, pending bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a todo's fields",
		Long: `Sends the fields given on the command line, plus the current title
when --title is not given. Use --completed or --pending to set the
completion flag explicitly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if completed && pending {
				return fmt.Errorf("--completed and --pending are mutually exclusive")
			}

			var patch models.TodoPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = models.String(title)
			}
			if flags.Changed("description") {
				patch.Description = models.String(description)
			}
			if completed {
				patch.Completed = models.Bool(true)
			}
			if pending {
				patch.Completed = models.Bool(false)
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to change: pass --title, --description, --completed or --pending")
			}

			return withSession(cmd, func(ctx context.Context, s *app.Session) error {
				path, err := todoPath(s, id)
				if err != nil {
					return err
				}
				return withViewSession(ctx, s, path, func() error {
					if patch.Title == nil {
						current := s.Todos.FetchTodo(ctx, id)
						if current == nil {
							return fetchError(s, fmt.Sprintf("todo %d not found", id))
						}
						patch.Title = models.String(current.Title)
					}

					todo, err := s.Todos.UpdateTodo(ctx, id, patch)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Updated todo %d\n", todo.ID)
					writeDetail(cmd.OutOrStdout(), *todo)
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().BoolVar(&completed, "completed", false, "mark as completed")
	cmd.Flags().BoolVar(&pending, "pending", false, "mark as not completed")
	return cmd
}

func newTodoRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withView(cmd, "/", func(ctx context.Context, s *app.Session) error {
				if err := s.Todos.DeleteTodo(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted todo %d\n", id)
				return nil
			})
		},
	}
}

func newTodoToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a todo's completion flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withView(cmd, "/", func(ctx context.Context, s *app.Session) error {
				s.Todos.FetchTodos(ctx)
				if msg := s.Todos.Err(); msg != "" {
					return errors.New(msg)
				}

				todo, err := s.Todos.ToggleCompletion(ctx, id)
				if err != nil {
					return err
				}
				if todo == nil {
					return fmt.Errorf("todo %d not found", id)
				}

				state := "pending"
				if todo.Completed {
					state = "completed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Todo %d is now %s\n", todo.ID, state)
				return nil
			})
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, items []models.Todo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tTITLE\tDESCRIPTION")
	for _, t := range items {
		done := " "
		if t.Completed {
			done = "x"
		}
		fmt.Fprintf(tw, "%d\t[%s]\t%s\t%s\n", t.ID, done, t.Title, t.Description)
	}
	return tw.Flush()
}

func writeDetail(w io.Writer, t models.Todo) {
	fmt.Fprintf(w, "ID:          %d\n", t.ID)
	fmt.Fprintf(w, "Title:       %s\n", t.Title)
	fmt.Fprintf(w, "Description: %s\n", t.Description)
	fmt.Fprintf(w, "Completed:   %t\n", t.Completed)
	if !t.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated:     %s\n", t.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}

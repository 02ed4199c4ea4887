package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/taskvoice/assistant"
	"github.com/GoCodeAlone/taskvoice/command"
	"github.com/GoCodeAlone/taskvoice/task"
)

var (
	listStatus  string
	listProject string
	listTag     string

	addPriority string
	addDue      string
	addProject  string
	addTags     []string

	remindWithin time.Duration
)

var sayCmd = &cobra.Command{
	Use:   "say [utterance]",
	Short: "Talk to the assistant",
	Long: `Sends one utterance to the assistant, or reads utterances line by line
from stdin when none is given. Short commands such as "mark done: taxes" are
applied directly; anything else is answered conversationally and any tasks
mentioned are added to your list.

Examples:
  taskvoice say "I need to call the dentist tomorrow"
  taskvoice say "start timer for the report"`,
	RunE: runSay,
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tasks",
	RunE:  listTasks,
}

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  addTask,
}

var completeCmd = &cobra.Command{
	Use:   "complete [task]",
	Short: "Mark the best matching task completed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, command.Command{
			Type:       command.TypeMarkComplete,
			Action:     "complete",
			Parameters: command.Parameters{TaskIdentifier: strings.Join(args, " ")},
		})
	},
}

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Track time on tasks",
}

var timerStartCmd = &cobra.Command{
	Use:   "start [task]",
	Short: "Start the timer on the best matching task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, command.Command{
			Type:       command.TypeStartTimer,
			Action:     "start",
			Parameters: command.Parameters{TaskIdentifier: strings.Join(args, " ")},
		})
	},
}

var timerStopCmd = &cobra.Command{
	Use:   "stop [task]",
	Short: "Stop a running timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, command.Command{
			Type:       command.TypeStartTimer,
			Action:     "stop",
			Parameters: command.Parameters{TaskIdentifier: strings.Join(args, " ")},
		})
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send reminders for open tasks due soon",
	RunE:  remind,
}

func init() {
	tasksCmd.Flags().StringVar(&listStatus, "status", "", "only tasks with this status")
	tasksCmd.Flags().StringVar(&listProject, "project", "", "only tasks in this project")
	tasksCmd.Flags().StringVar(&listTag, "tag", "", "only tasks with this tag")

	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "medium", "low, medium, high or urgent")
	addCmd.Flags().StringVarP(&addDue, "due", "d", "", `due date, e.g. "tomorrow", "friday" or "2026-11-02"`)
	addCmd.Flags().StringVar(&addProject, "project", "", "project name")
	addCmd.Flags().StringSliceVarP(&addTags, "tags", "t", nil, "comma separated tags")

	remindCmd.Flags().DurationVar(&remindWithin, "within", 24*time.Hour, "remind about tasks due within this long")

	timerCmd.AddCommand(timerStartCmd, timerStopCmd)
	rootCmd.AddCommand(sayCmd, tasksCmd, addCmd, completeCmd, timerCmd, remindCmd)
}

func runSay(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		return say(cmd, a, strings.Join(args, " "), out)
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if err := say(cmd, a, line, out); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func say(cmd *cobra.Command, a *app, text string, out io.Writer) error {
	reply, err := a.assistant.HandleUtterance(cmd.Context(), text)
	if err != nil {
		return err
	}
	a.notifier.Wait()
	if jsonOutput {
		return printJSON(out, reply)
	}
	if !cfg.Notifications.Speak {
		fmt.Fprintln(out, reply.Text)
	}
	return nil
}

func execute(cmd *cobra.Command, c command.Command) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	reply, err := a.assistant.Execute(cmd.Context(), c)
	if err != nil {
		return err
	}
	return printReply(cmd.OutOrStdout(), reply)
}

func printReply(out io.Writer, reply *assistant.Reply) error {
	if jsonOutput {
		return printJSON(out, reply)
	}
	fmt.Fprintln(out, reply.Text)
	return nil
}

func listTasks(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	filter := task.Filter{Project: listProject, Tag: listTag}
	if listStatus != "" {
		s, ok := task.ParseStatus(listStatus)
		if !ok {
			return fmt.Errorf("unknown status %q", listStatus)
		}
		filter.Status = &s
	}
	tasks, err := a.tasks.List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, tasks)
	}
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tDUE\tPROJECT\tTITLE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("Mon Jan 2 15:04")
		}
		title := t.Title
		if t.IsActiveTimer {
			title += " (timing)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", shortID(t.ID), t.Status, t.Priority, due, dash(t.Project), title)
	}
	return w.Flush()
}

func addTask(cmd *cobra.Command, args []string) error {
	prio, ok := task.ParsePriority(addPriority)
	if !ok {
		return fmt.Errorf("unknown priority %q", addPriority)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	t := task.Task{
		Title:    strings.Join(args, " "),
		Priority: prio,
		Project:  addProject,
		Tags:     addTags,
	}
	if addDue != "" {
		t.DueDate = command.NewParser().ParseDueDate(addDue)
		if t.DueDate == nil {
			return fmt.Errorf("cannot understand due date %q", addDue)
		}
	}
	if est, err := a.analytics.EstimateTaskTime(cmd.Context(), t); err == nil {
		minutes := est.EstimatedMinutes
		t.EstimatedMinutes = &minutes
	}
	created, err := a.tasks.Create(cmd.Context(), t)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, created)
	}
	if created.EstimatedMinutes == nil {
		fmt.Fprintf(out, "Added %q (%s).\n", created.Title, shortID(created.ID))
		return nil
	}
	fmt.Fprintf(out, "Added %q (%s, about %d min).\n", created.Title, shortID(created.ID), *created.EstimatedMinutes)
	return nil
}

func remind(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	due, err := a.assistant.RemindDue(cmd.Context(), remindWithin)
	if err != nil {
		return err
	}
	a.notifier.Wait()
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, due)
	}
	if len(due) == 0 {
		fmt.Fprintf(out, "Nothing due within %s.\n", remindWithin)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

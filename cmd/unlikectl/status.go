package main

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/xpzouying/instagram-unlike/unlike"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "显示保存的进度",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.runs.Load(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), unlike.Status{
				Running:   st.Running,
				Cycles:    st.Cycles,
				Processed: st.Processed,
				Action:    "Saved progress",
			}, a.v.GetInt("width"))
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "清空进度计数和运行标记",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.runs.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Progress reset")
			return nil
		},
	}
}

// statusLine 单行状态，超出终端宽度时按显示宽度截断（中文、emoji 占两格）
func statusLine(st unlike.Status, width int) string {
	state := "idle"
	if st.Running {
		state = "running"
	}
	line := fmt.Sprintf("[%s] cycles=%d processed=%d | %s", state, st.Cycles, st.Processed, st.Action)
	if width <= 0 {
		return line
	}
	return runewidth.Truncate(line, width, "…")
}

func printStatus(w io.Writer, st unlike.Status, width int) {
	fmt.Fprintln(w, statusLine(st, width))
}

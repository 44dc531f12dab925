// Package main provides the seekbox control CLI.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"google.golang.org/protobuf/types/known/structpb"

	apiconnect "github.com/osa030/seekbox/internal/api/connect"
	"github.com/osa030/seekbox/internal/app/notification"
	"github.com/osa030/seekbox/internal/app/session"
)

var (
	app     = kingpin.New("seekboxctl", "seekbox control client")
	server  = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token   = app.Flag("token", "Control token").Envar("SEEKBOX_CONTROL_TOKEN").String()
	timeout = app.Flag("timeout", "Request timeout").Default("5s").Duration()

	// status command
	statusCmd = app.Command("status", "Show playback status")

	// seek command
	seekCmd      = app.Command("seek", "Seek to a position")
	seekPosition = seekCmd.Arg("position", "HH:MM:SS.mmm or seconds").Required().String()

	// step command
	stepCmd   = app.Command("step", "Step frames (negative steps back, e.g. step -- -3)")
	stepDelta = stepCmd.Arg("delta", "Number of frames").Default("1").Int64()

	// toggle command
	toggleCmd = app.Command("toggle", "Toggle play/pause")

	// open command
	openCmd = app.Command("open", "Open a media")
	openURI = openCmd.Arg("uri", "Media URI or path").Required().String()

	// watch command
	watchCmd = app.Command("watch", "Stream playback updates")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewClient(http.DefaultClient, *server, *token)

	if command == watchCmd.FullCommand() {
		watch(client)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var (
		st  *structpb.Struct
		err error
	)
	switch command {
	case statusCmd.FullCommand():
		st, err = client.GetStatus(ctx)
	case seekCmd.FullCommand():
		st, err = client.Seek(ctx, *seekPosition)
	case stepCmd.FullCommand():
		st, err = client.StepFrame(ctx, *stepDelta)
	case toggleCmd.FullCommand():
		st, err = client.TogglePlayPause(ctx)
	case openCmd.FullCommand():
		st, err = client.Open(ctx, *openURI)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	printStatus(st)
}

func watch(client *apiconnect.Client) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Println("Watching playback. Press Ctrl+C to exit.")
	err := client.Watch(ctx, func(msg *structpb.Struct) error {
		printEvent(msg)
		return nil
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func printStatus(st *structpb.Struct) {
	f := st.GetFields()
	if !f[session.FieldAttached].GetBoolValue() {
		fmt.Printf("Session %s: no media (%s)\n", f[session.FieldSessionID].GetStringValue(), f[session.FieldPhase].GetStringValue())
		return
	}

	fmt.Printf("Media:    %s\n", f[session.FieldMediaName].GetStringValue())
	fmt.Printf("Position: %s\n", f[session.FieldLabel].GetStringValue())
	fmt.Printf("State:    %s\n", formatState(f[session.FieldState].GetStringValue()))
	if frame := int64(f[session.FieldFrame].GetNumberValue()); frame >= 0 {
		fmt.Printf("Frame:    %d\n", frame)
	}
	if f[session.FieldSeekInFlight].GetBoolValue() {
		line := "Seeking"
		if v, ok := f[session.FieldPendingMs]; ok {
			line += fmt.Sprintf(" (next: %s)", time.Duration(v.GetNumberValue())*time.Millisecond)
		}
		fmt.Println(line)
	}
}

func printEvent(msg *structpb.Struct) {
	f := msg.GetFields()
	line := fmt.Sprintf("[#%d] %-14s %s %s",
		int64(f[notification.SequenceField].GetNumberValue()),
		f[session.FieldKind].GetStringValue(),
		f[session.FieldLabel].GetStringValue(),
		formatState(f[session.FieldState].GetStringValue()),
	)
	if errMsg := f[session.FieldError].GetStringValue(); errMsg != "" {
		line += " error: " + errMsg
	}
	fmt.Println(line)
}

func formatState(state string) string {
	switch state {
	case "playing":
		return "▶️  Playing"
	case "paused":
		return "⏸  Paused"
	default:
		return "❓ Unknown"
	}
}

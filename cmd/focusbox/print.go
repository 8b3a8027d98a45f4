package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/app/filter"
	"github.com/osa030/focusbox/internal/app/notification"
	"github.com/osa030/focusbox/internal/domain/playlist"
	"github.com/osa030/focusbox/internal/infra/config"
)

// printFilters prints available filters.
func printFilters(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Filter", "Description", "Codes"})

	registry := filter.GetRegistered()
	for _, name := range filter.Names() {
		f := registry[name]()
		t.AppendRow(table.Row{f.Name(), f.Description(), strings.Join(f.ReturnCodes(), ", ")})
	}
	t.Render()
}

// printMoods prints the configured moods.
func printMoods(w io.Writer, cfg *config.Config) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Mood", "Minutes", "Query", "Break", "Default"})

	for _, m := range cfg.Session.Moods {
		def := ""
		if strings.EqualFold(m.Name, cfg.Session.DefaultMood) {
			def = "*"
		}
		t.AppendRow(table.Row{m.Name, m.Minutes, m.SearchQuery(), m.Break, def})
	}
	t.Render()
}

// printQueue prints the segments of q with their running start time.
func printQueue(w io.Writer, q *playlist.Queue) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s (%s) queue %s", q.Mood, q.SourceType, q.ID[:8]))
	t.AppendHeader(table.Row{"#", "At", "Title", "Artist", "Play", "Source", "Trimmed"})

	at := 0
	for i, s := range q.Segments {
		t.AppendRow(table.Row{
			i + 1,
			clock(at),
			s.Title,
			s.Artist,
			clock(s.PlayDurationSec),
			clock(s.SourceDurationSec),
			s.Trimmed,
		})
		at += s.PlayDurationSec
	}
	t.AppendFooter(table.Row{"", "", "", "Total", clock(q.AchievedSec), "", ""})
	t.Render()
}

func clock(sec int) string {
	d := time.Duration(sec) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := sec % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// logNotifications logs broadcast notifications until the channel closes.
func logNotifications(ch <-chan notification.Notification) {
	for n := range ch {
		switch n.Type {
		case notification.TypePlaylistReady:
			p := n.PlaylistReady
			zlog.Info().Msgf("notification: playlist ready: seq=%d source=%s first_track=%s segments=%d",
				n.SequenceNo, p.SourceType, p.FirstTrackID, p.Queue.Len())
		case notification.TypeSessionCompleted:
			p := n.SessionCompleted
			zlog.Info().Msgf("notification: session completed: seq=%d queue=%s reason=%s played=%d",
				n.SequenceNo, p.QueueID, p.Reason, p.PlayedCount)
		case notification.TypeTimer:
			p := n.Timer
			zlog.Info().Msgf("notification: timer: seq=%d event=%s kind=%s remaining=%s",
				n.SequenceNo, p.Event, p.Kind, clock(p.Remaining))
		}
	}
}

package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"smartbus/internal/domain"
	"smartbus/internal/utils"
)

// DocsService renders printable documents. Today that is the bus timeline.
type DocsService struct {
	Timeline  TimelineService
	RequestID string
	Loader    func(ctx context.Context, busID, routeID int64) (BusTimeline, error)
}

func (s DocsService) load(ctx context.Context, busID, routeID int64) (BusTimeline, error) {
	if s.Loader != nil {
		return s.Loader(ctx, busID, routeID)
	}
	return s.Timeline.BusTimeline(ctx, busID, routeID)
}

// TimelinePDF returns the PDF bytes and a download filename.
func (s DocsService) TimelinePDF(ctx context.Context, busID, routeID int64) ([]byte, string, error) {
	tl, err := s.load(ctx, busID, routeID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "timeline_pdf", fmt.Sprintf("bus_id=%d route_id=%d", busID, tl.Route.RouteID))
	return buildTimelinePDF(tl)
}

func buildTimelinePDF(tl BusTimeline) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Bus Timeline", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BUS TIMELINE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	mode := "Scheduled"
	if tl.Bus.IsRealTime {
		mode = "Live"
	}
	lines := []string{
		fmt.Sprintf("Bus       : %s", safe(tl.Bus.BusNumber, "-")),
		fmt.Sprintf("Status    : %s", safe(tl.Bus.Status, "-")),
		fmt.Sprintf("Route     : %s", safe(tl.Route.RouteName, "-")),
		fmt.Sprintf("Stops     : %d (%d completed, %d remaining)", tl.Metadata.TotalStops, tl.Metadata.CompletedStops, tl.Metadata.RemainingStops),
		fmt.Sprintf("Mode      : %s", mode),
		fmt.Sprintf("Generated : %s", tl.Timeline.LastUpdated.Format("2006-01-02 15:04")),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	widths := []float64{12, 78, 28, 28, 24}
	for i, h := range []string{"#", "Stop", "Arrival", "ETA", "Km"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, st := range tl.Timeline.Stops {
		name := st.Name
		if st.Status == domain.StopCurrent {
			name = "> " + name
		}
		pdf.CellFormat(widths[0], 7, fmt.Sprintf("%d", st.StopOrder), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 7, truncate(name, 44), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, st.ArrivalTime, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 7, st.ETA, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[4], 7, fmt.Sprintf("%.1f", st.Distance), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if tl.Bus.LastSeen != nil {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, tl.Bus.LastSeen.Message, "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("TIMELINE_%s_%s.pdf", safeFilenamePart(tl.Bus.BusNumber), time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

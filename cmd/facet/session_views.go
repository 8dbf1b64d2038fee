package main

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"facet/internal/api"
)

var titleCaser = cases.Title(language.English)

func renderSessionTable(sessions []api.SessionSnapshot) string {
	headers := []string{"ID", "Operator", "Status", "Frames", "Defects", "Defect %", "FPS", "Started"}
	aligns := []columnAlignment{
		alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft,
	}

	rows := make([][]string, 0, len(sessions))
	for _, session := range sessions {
		rows = append(rows, []string{
			strconv.FormatInt(session.ID, 10),
			session.Operator,
			titleCaser.String(session.Status),
			strconv.FormatInt(session.TotalFrames, 10),
			strconv.FormatInt(session.DefectCount, 10),
			fmt.Sprintf("%.2f", session.DefectRate),
			fmt.Sprintf("%.3f", session.ThroughputFPS),
			shortTimestamp(session.StartedAt),
		})
	}
	return renderTable(headers, rows, aligns)
}

func renderScanTable(scans []api.ScanRecord) string {
	headers := []string{"ID", "Frame", "Decision", "Score", "Confidence", "Inference ms", "Captured"}
	aligns := []columnAlignment{
		alignRight, alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft,
	}

	rows := make([][]string, 0, len(scans))
	for _, scan := range scans {
		rows = append(rows, []string{
			strconv.FormatInt(scan.ID, 10),
			strconv.FormatInt(scan.FrameIndex, 10),
			titleCaser.String(scan.Decision),
			fmt.Sprintf("%.4f", scan.AnomalyScore),
			titleCaser.String(scan.ConfidenceLevel),
			fmt.Sprintf("%.1f", scan.InferenceMS),
			shortTimestamp(scan.CapturedAt),
		})
	}
	return renderTable(headers, rows, aligns)
}

func shortTimestamp(value string) string {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return value
	}
	return parsed.Local().Format("2006-01-02 15:04:05")
}

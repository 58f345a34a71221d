package tools

import "testing"

func TestFilenameFix(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"report.pdf", "report.pdf"},
		{"Quarterly Report 2025.xlsx", "Quarterly Report 2025.xlsx"},
		{"/tmp/upload/report.pdf", "report.pdf"},
		{"C:\\Users\\jan\\report.pdf", "report.pdf"},
		{"bad\"quote.txt", "bad_quote.txt"},
		{"tab\there.txt", "tab_here.txt"},
		{"éñçödéd.txt", "dd.txt"},
		{"", "attachment"},
		{"   ", "attachment"},
	}

	for _, test := range tests {
		result := FilenameFix(test.input)
		if result != test.expected {
			t.Errorf("FilenameFix(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

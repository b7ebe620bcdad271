package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const csvData = `Order ID,Order Date,Ship Date,Customer ID,Customer Name,Segment,Region,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit
A,1/5/2016,1/8/2016,C1,Claire Gute,Consumer,East,Furniture,Chairs,Chair,100,1,0,20
A,1/5/2016,1/8/2016,C1,Claire Gute,Consumer,East,Technology,Phones,Phone,50,1,0,-10
B,7/9/2017,7/12/2017,C2,Darrin Van Huff,Corporate,West,Furniture,Tables,Table,200,1,0,40
C,someday,7/12/2017,C2,Darrin Van Huff,Corporate,West,Furniture,Tables,Table,10,1,0,1
`

func writeCSV(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "superstore.csv")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestReportCommand(t *testing.T) {
	isolate(t)
	path := writeCSV(t, csvData)

	out, _, err := execute(t, "--file", path, "--top", "1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	for _, want := range []string{
		"Total Sales:", "$350.00",
		"Profit Margin:", "14.29%",
		"Rejected rows:", "Top 1 Products by Sales:",
		"West region generates highest sales ($200)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(out, "Top 5 Products") {
		t.Error("--top flag was not applied")
	}
}

func TestReportCommand_StrictDates(t *testing.T) {
	isolate(t)
	path := writeCSV(t, csvData)

	_, _, err := execute(t, "--file", path, "--strict-dates")
	if err == nil {
		t.Fatal("expected a malformed date error")
	}
	if !strings.Contains(err.Error(), "someday") {
		t.Errorf("error should name the bad value, got %v", err)
	}
}

func TestReportCommand_LoadFailure(t *testing.T) {
	isolate(t)
	path := writeCSV(t, "what,is\nthis,file\n")

	_, _, err := execute(t, "--file", path)
	if err == nil {
		t.Fatal("expected a load error")
	}

	var buf bytes.Buffer
	describe(&buf, err)
	msg := buf.String()
	if !strings.Contains(msg, "  | what,is") {
		t.Errorf("description should include the preview, got:\n%s", msg)
	}
	if !strings.Contains(msg, "Order ID") {
		t.Errorf("description should list expected columns, got:\n%s", msg)
	}
}

func TestReportCommand_RejectsArgs(t *testing.T) {
	isolate(t)
	if _, _, err := execute(t, "extra"); err == nil {
		t.Error("expected an error for positional arguments")
	}
}

package form

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

func newPrompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return New(strings.NewReader(input), &out), &out
}

func TestRequiredRejectsBlank(t *testing.T) {
	p, _ := newPrompter("   \n")
	_, err := p.Required("Course ID")
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
}

func TestDefaultsApplyOnEmptyAnswer(t *testing.T) {
	p, out := newPrompter("\n\n\n")

	n, err := p.Int("Duration (minutes)", 30)
	if err != nil || n != 30 {
		t.Fatalf("Int = %d, %v", n, err)
	}
	f, err := p.Float("Total marks", 10)
	if err != nil || f != 10 {
		t.Fatalf("Float = %v, %v", f, err)
	}
	c, err := p.Choice("Difficulty", "easy", "medium", "hard")
	if err != nil || c != "easy" {
		t.Fatalf("Choice = %q, %v", c, err)
	}
	if !strings.Contains(out.String(), "Difficulty (easy/medium/hard) [easy]: ") {
		t.Fatalf("unexpected prompt output %q", out.String())
	}
}

func TestTypedParsing(t *testing.T) {
	p, _ := newPrompter("abc\n-15\nHARD\nmaybe\n")

	if _, err := p.Int("Extra", 0); err == nil {
		t.Fatalf("expected integer error")
	}
	if n, err := p.Int("Extra", 0); err != nil || n != -15 {
		t.Fatalf("Int = %d, %v", n, err)
	}
	if c, err := p.Choice("Difficulty", "easy", "medium", "hard"); err != nil || c != "hard" {
		t.Fatalf("Choice = %q, %v", c, err)
	}
	if _, err := p.Choice("Difficulty", "easy", "medium", "hard"); err == nil {
		t.Fatalf("expected choice error")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" algebra, ,geometry ,")
	if !reflect.DeepEqual(got, []string{"algebra", "geometry"}) {
		t.Fatalf("SplitList = %v", got)
	}
	if SplitList("") != nil {
		t.Fatalf("empty input should give nil")
	}
}

func TestYesNoRepromptsUntilAnswered(t *testing.T) {
	p, out := newPrompter("perhaps\nY\n")
	ok, err := p.YesNo("Delete course CS101?")
	if err != nil || !ok {
		t.Fatalf("YesNo = %v, %v", ok, err)
	}
	if !strings.Contains(out.String(), "Please answer yes or no.") {
		t.Fatalf("missing reprompt in %q", out.String())
	}
}

func TestConfirmTreatsEOFAsNo(t *testing.T) {
	p, _ := newPrompter("")
	if p.Confirm("Delete?") {
		t.Fatalf("EOF must not confirm")
	}
}

func TestPasswordReadsLineWhenNotATerminal(t *testing.T) {
	p, _ := newPrompter("s3cret!\n")
	pw, err := p.Password("Password")
	if err != nil || pw != "s3cret!" {
		t.Fatalf("Password = %q, %v", pw, err)
	}
}

func TestReadLineReturnsFinalUnterminatedLine(t *testing.T) {
	p, _ := newPrompter("logout")
	line, err := p.ReadLine()
	if err != nil || line != "logout" {
		t.Fatalf("ReadLine = %q, %v", line, err)
	}
	if _, err := p.ReadLine(); !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want EOF", err)
	}
}

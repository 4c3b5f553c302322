package logictext

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplit_Empty(t *testing.T) {
	if got := Split(""); got != nil {
		t.Errorf("Split(\"\") = %v, want nil", got)
	}
	if got := Split("   \n\t\n"); got != nil {
		t.Errorf("Split(whitespace) = %v, want nil", got)
	}
}

func TestSplit_SingleSentence(t *testing.T) {
	got := Split("OCR the uploaded PAN card")
	want := []string{"OCR the uploaded PAN card"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
}

func TestSplit_BulletList(t *testing.T) {
	text := "- If 'Employment Type' is 'Salaried' then 'Employer Name' is visible\n" +
		"- Verify the PAN number\n" +
		"* Make the field non editable"
	got := Split(text)
	want := []string{
		"If 'Employment Type' is 'Salaried' then 'Employer Name' is visible",
		"Verify the PAN number",
		"Make the field non editable",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
}

func TestSplit_NumberedList(t *testing.T) {
	text := "1. OCR the cheque image\n2) Verify the bank account"
	got := Split(text)
	want := []string{"OCR the cheque image", "Verify the bank account"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
}

func TestSplit_ContinuationLines(t *testing.T) {
	text := "- If 'Constitution' is 'Company' then\n" +
		"  'CIN' should be visible and mandatory\n" +
		"- Verify GSTIN"
	got := Split(text)
	want := []string{
		"If 'Constitution' is 'Company' then 'CIN' should be visible and mandatory",
		"Verify GSTIN",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
}

func TestSplit_BlankLineSeparatesParagraphs(t *testing.T) {
	text := "OCR the PAN image\nand fill the name\n\nVerify the PAN number"
	got := Split(text)
	want := []string{"OCR the PAN image and fill the name", "Verify the PAN number"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
}

func TestSplit_UnicodeBullet(t *testing.T) {
	got := Split("• Make 'GST Number' mandatory if 'Has GST' is 'Yes'")
	want := []string{"Make 'GST Number' mandatory if 'Has GST' is 'Yes'"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
}

package catalog

// Static domain tables shared by synthesis: which OCR source type serves a
// document type, which verification source type it chains into, and which
// verification source type a document type maps to directly.

// ocrSourceTypes maps a canonical document type to its OCR source type.
var ocrSourceTypes = map[string]string{
	"pan":    "PAN_IMAGE",
	"bank":   "CHEQUEE",
	"aadhar": "AADHAR_IMAGE",
	"gst":    "GST_IMAGE",
	"msme":   "MSME_IMAGE",
}

// verifySourceTypes maps a canonical document type to its server-side
// verification source type.
var verifySourceTypes = map[string]string{
	"pan":  "PAN",
	"bank": "BANK_ACCOUNT_NUMBER",
	"gst":  "GSTIN",
	"msme": "MSME",
	"cin":  "CIN",
}

// ocrVerifyChains maps an OCR source type to the VERIFY source type that
// should fire after a successful extraction. OCR types absent from this
// table (e.g. AADHAR_IMAGE) legitimately have no chain.
var ocrVerifyChains = map[string]string{
	"PAN_IMAGE":  "PAN",
	"CHEQUEE":    "BANK_ACCOUNT_NUMBER",
	"GST_IMAGE":  "GSTIN",
	"MSME_IMAGE": "MSME",
}

// OCRSourceType returns the OCR source type for a canonical document type.
func OCRSourceType(docType string) (string, bool) {
	st, ok := ocrSourceTypes[docType]
	return st, ok
}

// VerifySourceType returns the verification source type for a canonical
// document type.
func VerifySourceType(docType string) (string, bool) {
	st, ok := verifySourceTypes[docType]
	return st, ok
}

// ChainedVerifyType returns the VERIFY source type an OCR source type
// chains into, if a chain is defined.
func ChainedVerifyType(ocrSourceType string) (string, bool) {
	st, ok := ocrVerifyChains[ocrSourceType]
	return st, ok
}

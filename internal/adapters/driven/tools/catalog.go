package tools

// Tool names.
const (
	PDFInfo   = "pdfinfo"
	PDFToText = "pdftotext"
	PDFToPPM  = "pdftoppm"
	DjVuSed   = "djvused"
	DjVuTxt   = "djvutxt"
	DDjVu     = "ddjvu"
)

// Tool describes an external executable the build can use.
type Tool struct {
	Name    string
	Purpose string
	Package string
}

// Catalog returns every external tool in the order the cascade uses them.
func Catalog() []Tool {
	return []Tool{
		{PDFInfo, "PDF page count", "poppler"},
		{PDFToText, "PDF text layer extraction", "poppler"},
		{PDFToPPM, "PDF page rendering for OCR", "poppler"},
		{DjVuTxt, "DjVu text layer extraction", "djvulibre"},
		{DjVuSed, "DjVu page count", "djvulibre"},
		{DDjVu, "DjVu to PDF conversion and page rendering", "djvulibre"},
	}
}

// InstallInstructions returns how to install the external tools.
func InstallInstructions() string {
	return `External tools are needed for scanned PDF and DjVu documents:
  macOS:   brew install poppler djvulibre tesseract tesseract-lang
  Debian:  apt install poppler-utils djvulibre-bin tesseract-ocr tesseract-ocr-rus
  Windows: install DjVuLibre, poppler and Tesseract-OCR, or add their bin directories to PATH`
}

// Package tools resolves and runs the external executables used to read
// scanned documents: poppler (pdfinfo, pdftotext, pdftoppm) and
// DjVuLibre (djvused, djvutxt, ddjvu).
package tools

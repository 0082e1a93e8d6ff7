package app

import (
    "bufio"
    "strings"

    "github.com/jung-kurt/gofpdf"
)

// writeResultsPDF renders a formatted result block to a PDF. Paper headings are
// bold, URL lines become clickable links and the indented abstract keeps its
// wrapping. Core fonts are cp1252, so characters outside it print as '?'.
func writeResultsPDF(query, text, outPath string) error {
    pdf := gofpdf.New("P", "mm", "A4", "")
    tr := pdf.UnicodeTranslatorFromDescriptor("")
    pdf.SetTitle(query, true)
    pdf.SetCreator(ServerName+" "+BuildVersion, true)
    pdf.AddPage()

    pdf.SetFont("Helvetica", "B", 14)
    pdf.MultiCell(0, 8, tr("Scholarly search: "+query), "", "L", false)
    pdf.Ln(2)
    pdf.SetFont("Helvetica", "", 10)

    scanner := bufio.NewScanner(strings.NewReader(text))
    scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
    for scanner.Scan() {
        line := scanner.Text()
        s := strings.TrimSpace(line)
        switch {
        case s == "":
            pdf.Ln(3)
        case strings.HasPrefix(s, "=== Paper ") && strings.HasSuffix(s, " ==="):
            pdf.SetFont("Helvetica", "B", 12)
            pdf.CellFormat(0, 7, tr(strings.Trim(s, "= ")), "", 1, "L", false, 0, "")
            pdf.SetFont("Helvetica", "", 10)
        case strings.HasPrefix(s, "URL: http"):
            url := strings.TrimPrefix(s, "URL: ")
            pdf.Write(5, "URL: ")
            pdf.SetTextColor(0, 0, 200)
            pdf.WriteLinkString(5, tr(url), url)
            pdf.SetTextColor(0, 0, 0)
            pdf.Ln(5)
        case strings.HasPrefix(line, "  "):
            // abstract body, already wrapped
            pdf.SetX(pdf.GetX() + 4)
            pdf.MultiCell(0, 5, tr(s), "", "L", false)
        default:
            pdf.MultiCell(0, 5, tr(s), "", "L", false)
        }
    }
    if err := scanner.Err(); err != nil {
        pdf.Close()
        return err
    }
    return pdf.OutputFileAndClose(outPath)
}

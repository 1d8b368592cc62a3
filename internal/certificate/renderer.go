package certificate

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/jizzpi-arm/book-deposit-api/internal/models"
)

// Kind names the two printable documents issued for an accepted submission.
type Kind string

const (
	KindReference Kind = "reference"
	KindConsent   Kind = "consent"
)

// Filename returns the storage-relative name of a rendered document.
func Filename(submissionID string, kind Kind) string {
	switch kind {
	case KindConsent:
		return fmt.Sprintf("%s/rozilik-xati.pdf", submissionID)
	default:
		return fmt.Sprintf("%s/malumotnoma.pdf", submissionID)
	}
}

// Config carries the institutional header lines and QR parameters.
type Config struct {
	Institution string
	Ministry    string
	BaseURL     string
	QRSize      int
}

// Renderer produces the two A4 certificates: the reference listing
// (MA'LUMOTNOMA) and the consent letter (ROZILIK XATI). Both carry the
// scannable verification code.
type Renderer struct {
	cfg Config
}

// NewRenderer constructs a renderer.
func NewRenderer(cfg Config) *Renderer {
	if cfg.Institution == "" {
		cfg.Institution = "JIZZAX POLITEXNIKA INSTITUTI"
	}
	if cfg.QRSize <= 0 {
		cfg.QRSize = 100
	}
	return &Renderer{cfg: cfg}
}

// Render produces the requested document kind.
func (r *Renderer) Render(sub *models.BookSubmission, kind Kind) ([]byte, error) {
	if sub == nil {
		return nil, fmt.Errorf("submission nil")
	}
	switch kind {
	case KindConsent:
		return r.Consent(sub)
	case KindReference:
		return r.Reference(sub)
	default:
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
}

var uzbekMonths = [...]string{
	"yanvar", "fevral", "mart", "aprel", "may", "iyun",
	"iyul", "avgust", "sentabr", "oktabr", "noyabr", "dekabr",
}

// certificateDate resolves the user-chosen submission date; the entry
// timestamp is metadata and never appears on paper.
func certificateDate(sub *models.BookSubmission) time.Time {
	if sub.SubmissionDate != "" {
		if d, err := time.Parse("2006-01-02", sub.SubmissionDate); err == nil {
			return d
		}
	}
	return time.Now()
}

// Reference renders the MA'LUMOTNOMA: a headed table of the deposited
// literature with signature blocks and the verification QR.
func (r *Renderer) Reference(sub *models.BookSubmission) ([]byte, error) {
	date := certificateDate(sub)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 15, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Times", "B", 12)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("“ %02d ” %s %d yil", date.Day(), uzbekMonths[date.Month()-1], date.Year())), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	ministry := r.cfg.Ministry
	if ministry == "" {
		ministry = "O'ZBEKISTON RESPUBLIKASI OLIY TA'LIM, FAN VA INNOVATSIYALAR VAZIRLIGI"
	}
	institution := strings.ToUpper(sub.Institution)
	if institution == "" {
		institution = r.cfg.Institution
	}

	pdf.SetFont("Times", "B", 11)
	pdf.MultiCell(0, 5, tr(ministry), "", "C", false)
	pdf.SetFont("Times", "B", 15)
	pdf.MultiCell(0, 7, tr(institution), "", "C", false)
	pdf.SetFont("Times", "I", 10)
	pdf.MultiCell(0, 5, tr("Axborot resurs markazi \"Elektron axborot resurslari\" bo'limiga topshirilgan elektron adabiyotlar to'g'risida"), "", "C", false)
	pdf.Ln(4)

	pdf.SetFont("Times", "B", 24)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.6)
	y := pdf.GetY()
	pdf.Line(20, y, 190, y)
	pdf.CellFormat(0, 14, tr("M A ' L U M O T N O M A"), "", 1, "C", false, 0, "")
	y = pdf.GetY()
	pdf.Line(20, y, 190, y)
	pdf.Ln(6)

	// Book table, padded to eight rows like the blank paper form.
	colW := []float64{10.0, 55.0, 75.0, 30.0}
	headers := []string{"№", "Muallifi (lar)", "Adabiyotning nomi va turi", "ISBN kodi"}
	pdf.SetLineWidth(0.4)
	pdf.SetFont("Times", "B", 12)
	for i, h := range headers {
		pdf.CellFormat(colW[i], 12, tr(h), "1", 0, "CM", false, 0, "")
	}
	pdf.Ln(-1)

	const tableRows = 8
	pdf.SetFont("Times", "", 11)
	for i := 0; i < tableRows || i < len(sub.Books); i++ {
		pdf.SetFont("Times", "B", 11)
		pdf.CellFormat(colW[0], 14, fmt.Sprintf("%d", i+1), "1", 0, "CM", false, 0, "")
		pdf.SetFont("Times", "", 11)
		if i < len(sub.Books) {
			book := sub.Books[i]
			pdf.CellFormat(colW[1], 14, tr(book.Authors), "1", 0, "LM", false, 0, "")
			title := fmt.Sprintf("%s: \"%s\" (%d)", book.Type, book.Title, book.PublishedYear)
			pdf.CellFormat(colW[2], 14, tr(title), "1", 0, "LM", false, 0, "")
			isbn := book.ISBN
			if isbn == "" {
				isbn = "-"
			}
			pdf.CellFormat(colW[3], 14, tr(isbn), "1", 0, "CM", false, 0, "")
		} else {
			pdf.CellFormat(colW[1], 14, "", "1", 0, "", false, 0, "")
			pdf.CellFormat(colW[2], 14, "", "1", 0, "", false, 0, "")
			pdf.CellFormat(colW[3], 14, "", "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(10)

	// Signature block on the left, verification QR on the right.
	sigY := pdf.GetY()
	pdf.SetFont("Times", "B", 12)
	pdf.Text(20, sigY+5, tr("Topshirdi:"))
	pdf.SetFont("Times", "B", 11)
	pdf.Text(20, sigY+12, tr(strings.ToUpper(sub.FullName)))
	pdf.SetFont("Times", "I", 9)
	pdf.Text(95, sigY+12, tr("/ imzo /"))
	pdf.Line(20, sigY+13, 110, sigY+13)

	pdf.SetFont("Times", "B", 12)
	pdf.Text(20, sigY+25, tr("Qabul qildi:"))
	pdf.SetFont("Times", "", 11)
	pdf.Text(20, sigY+32, tr("ARM xodimi"))
	pdf.SetFont("Times", "I", 9)
	pdf.Text(95, sigY+32, tr("/ imzo /"))
	pdf.Line(20, sigY+33, 110, sigY+33)

	if err := r.placeQR(pdf, sub.ID, 150, sigY+2, 28); err != nil {
		return nil, err
	}
	pdf.SetFont("Times", "B", 8)
	pdf.SetXY(138, sigY+32)
	pdf.MultiCell(52, 3.5, tr("ELEKTRON IMZO (HAQIQIYLIGINI TEKSHIRISH)"), "", "C", false)

	pdf.SetY(-25)
	pdf.SetFont("Times", "I", 10)
	pdf.SetTextColor(120, 120, 120)
	shortID := sub.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Hujjat JizzPI ARM elektron tizimi orqali tayyorlandi. ID: %s", shortID)), "T", 1, "C", false, 0, "")

	return output(pdf)
}

// Consent renders the ROZILIK XATI: the submitter's written consent to
// publish the listed literature on the electronic library platform.
func (r *Renderer) Consent(sub *models.BookSubmission) ([]byte, error) {
	date := certificateDate(sub)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(30, 25, 30)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Addressee block, right-aligned.
	pdf.SetFont("Times", "B", 14)
	pdf.CellFormat(0, 7, tr(strings.ToUpper(sub.FullName)), "", 1, "R", false, 0, "")
	pdf.SetFont("Times", "", 12)
	addressee := fmt.Sprintf("%s, « %s » %s", sub.Institution, sub.Department, strings.ToLower(sub.Position))
	pdf.MultiCell(0, 6, tr(addressee), "", "R", false)
	pdf.Ln(10)

	pdf.SetFont("Times", "B", 26)
	pdf.CellFormat(0, 14, tr("R O Z I L I K   X A T I"), "B", 1, "C", false, 0, "")
	pdf.Ln(10)

	titles := make([]string, 0, len(sub.Books))
	for _, book := range sub.Books {
		titles = append(titles, fmt.Sprintf("«%s» (%s)", book.Title, book.Type))
	}

	fontSize := 12.0
	lineHeight := 7.0
	if len(sub.Books) > 3 || len(sub.FullName) > 25 {
		fontSize = 11
		lineHeight = 6
	}

	pdf.SetFont("Times", "", fontSize)
	body := fmt.Sprintf(
		"Men, %s, quyidagi elektron adabiyotlarim: %s bo'yicha O'zbekiston Respublikasining "+
			"\"Mualliflik huquqi va turdosh huquqlar to'g'risida\"gi qonunining 18-19 moddalari talablaridan kelib chiqqan holda, "+
			"Jizzax politexnika instituti Axborot resurs markazi hamda Oliy ta'lim, fan va innovatsiyalar vazirligi huzurida tashkil etilgan "+
			"\"Elektron kutubxona\" platformasiga joylashtirishga va foydalanishga rozilik bildiraman.",
		sub.FullName, strings.Join(titles, ", "))
	pdf.MultiCell(0, lineHeight, tr(body), "", "J", false)
	pdf.Ln(4)

	pdf.MultiCell(0, lineHeight, tr(
		"Mazkur adabiyotlardan talabalar, tadqiqotchilar, professor-o'qituvchilar va boshqa xodimlarning bepul foydalanishiga, "+
			"o'quv va ilmiy maqsadlarda yuklab olishlariga hech qanday e'tirozim yo'q."), "", "J", false)
	pdf.Ln(6)

	pdf.SetFont("Times", "I", 10)
	pdf.SetFillColor(245, 245, 245)
	pdf.MultiCell(0, 5, tr(
		"Eslatma: Mazkur rozilik xati mualliflik ob'yektiga nisbatan mulkiy huquqlarni o'zga shaxslarga berishni anglatmaydi "+
			"va faqatgina muassasa ta'lim jarayonlari samaradorligini oshirish maqsadida foydalanish uchun mo'ljallangan."), "L", "J", true)
	pdf.Ln(12)

	blockY := pdf.GetY()
	if err := r.placeQR(pdf, sub.ID, 35, blockY, 32); err != nil {
		return nil, err
	}
	pdf.SetFont("Times", "B", 9)
	pdf.SetXY(28, blockY+34)
	pdf.MultiCell(46, 4, tr("ELEKTRON IMZO & ID"), "", "C", false)

	pdf.SetFont("Times", "B", 13)
	pdf.Text(100, blockY+10, tr(fmt.Sprintf("Sana: %02d.%02d.%d y.", date.Day(), int(date.Month()), date.Year())))
	pdf.SetFont("Times", "B", 11)
	pdf.Text(100, blockY+28, tr(strings.ToUpper(sub.FullName)))
	pdf.Line(100, blockY+30, 180, blockY+30)
	pdf.SetFont("Times", "", 9)
	pdf.Text(100, blockY+35, tr("Topshiruvchi F.I.Sh (imzo)"))

	pdf.SetY(-20)
	pdf.SetFont("Times", "I", 9)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("JizzPI ARM elektron tizimi orqali tasdiqlandi. Verification ID: %s", sub.ID)), "", 1, "C", false, 0, "")

	return output(pdf)
}

func (r *Renderer) placeQR(pdf *gofpdf.Fpdf, id string, x, y, size float64) error {
	png, err := QRPNG(VerifyURL(r.cfg.BaseURL, id), r.cfg.QRSize)
	if err != nil {
		return err
	}
	name := "qr-" + id
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions(name, x, y, size, size, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return nil
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}

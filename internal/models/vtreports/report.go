package vtreports

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"vitrine/internal/models/vtanalytics"
	"vitrine/internal/models/vtimages"

	"github.com/tdewolff/minify/v2"
	htmlmin "github.com/tdewolff/minify/v2/html"
)

// Mise en page : hauteurs en unités abstraites. Une nouvelle page
// démarre quand l'espace restant passe sous le seuil
const (
	pageHeight     = 1000
	breakThreshold = 120

	headerHeight       = 90
	metadataHeight     = 40
	metricsGridHeight  = 170
	chartBlockHeight   = 360
	tableTitleHeight   = 36
	tableHeaderHeight  = 28
	tableRowHeight     = 22
	maxChartsPerReport = 2
)

// Couleurs des séries, reprises de la charte du tableau de bord
var (
	colorPrimary   = vtimages.HexToColor("#2563eb")
	colorSecondary = colorPrimary.Lighten(45)
)

type Exporter struct {
	SiteName string
	minifier *minify.M
}

func NewExporter(siteName string) *Exporter {
	m := minify.New()
	m.AddFunc("text/html", htmlmin.Minify)

	return &Exporter{
		SiteName: siteName,
		minifier: m,
	}
}

// section est un fragment HTML avec sa hauteur réservée
type section struct {
	height int
	html   string
}

// BuildCharts prépare les deux graphiques du rapport : comparaison
// horaire aujourd'hui/hier et série des 30 derniers jours. Un graphique
// qui ne peut pas être rendu est simplement omis
func BuildCharts(summary *vtanalytics.Summary) []*Chart {
	var charts []*Chart

	today := make([]int, 0, len(summary.HourlySeries))
	yesterday := make([]int, 0, len(summary.HourlySeries))
	for _, h := range summary.HourlySeries {
		today = append(today, h.Today)
		yesterday = append(yesterday, h.Yesterday)
	}
	hourly, err := RenderBarChart("Visites par heure", []ChartSeries{
		{Label: "Aujourd'hui", Values: today, Color: colorPrimary},
		{Label: "Hier", Values: yesterday, Color: colorSecondary},
	})
	if err == nil {
		charts = append(charts, hourly)
	}

	visits := make([]int, 0, len(summary.MonthlySeries))
	for _, d := range summary.MonthlySeries {
		visits = append(visits, d.Visits)
	}
	monthly, err := RenderBarChart("Visiteurs sur 30 jours", []ChartSeries{
		{Label: "Visiteurs", Values: visits, Color: colorPrimary},
	})
	if err == nil {
		charts = append(charts, monthly)
	}

	return charts
}

// ExportSummary construit le rapport HTML paginé, dans l'ordre fixe :
// en-tête, métadonnées, grille de métriques, graphiques, tableau des
// pages les plus vues, pied de page numéroté sur chaque page
func (e *Exporter) ExportSummary(summary *vtanalytics.Summary, charts []*Chart) ([]byte, error) {
	if summary == nil {
		return nil, fmt.Errorf("résumé manquant")
	}

	sections := []section{
		e.headerSection(),
		metadataSection(summary.GeneratedAt),
		metricsSection(summary),
	}

	if len(charts) > maxChartsPerReport {
		charts = charts[:maxChartsPerReport]
	}
	for _, chart := range charts {
		sections = append(sections, chartSection(chart))
	}

	sections = append(sections, pagesTableSections(summary.PageViews)...)

	pages := paginate(sections)

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html lang=\"fr\">\n<head>\n<meta charset=\"utf-8\">\n")
	doc.WriteString("<title>" + template.HTMLEscapeString(e.SiteName) + " — Rapport de visites</title>\n")
	doc.WriteString("<style>" + reportCSS + "</style>\n</head>\n<body>\n")

	for i, page := range pages {
		doc.WriteString("<div class=\"page\">\n")
		for _, s := range page {
			doc.WriteString(s.html)
		}
		doc.WriteString(fmt.Sprintf("<footer>%s — Page %d sur %d</footer>\n",
			template.HTMLEscapeString(e.SiteName), i+1, len(pages)))
		doc.WriteString("</div>\n")
	}
	doc.WriteString("</body>\n</html>\n")

	minified, err := e.minifier.Bytes("text/html", []byte(doc.String()))
	if err != nil {
		return nil, fmt.Errorf("error minifying report: %w", err)
	}

	return minified, nil
}

// paginate répartit les sections sur les pages. Chaque section est
// placée entière ; on saute de page quand elle ne tient pas ou quand
// l'espace restant tombe sous le seuil
func paginate(sections []section) [][]section {
	var pages [][]section
	var current []section
	remaining := pageHeight

	for _, s := range sections {
		if len(current) > 0 && (s.height > remaining || remaining < breakThreshold) {
			pages = append(pages, current)
			current = nil
			remaining = pageHeight
		}
		current = append(current, s)
		remaining -= s.height
	}
	if len(current) > 0 {
		pages = append(pages, current)
	}

	return pages
}

func (e *Exporter) headerSection() section {
	return section{
		height: headerHeight,
		html: fmt.Sprintf("<header><h1>%s</h1><p>Rapport de fréquentation</p></header>\n",
			template.HTMLEscapeString(e.SiteName)),
	}
}

func metadataSection(generatedAt time.Time) section {
	return section{
		height: metadataHeight,
		html: fmt.Sprintf("<p class=\"meta\">Généré le %s</p>\n",
			generatedAt.Format("02/01/2006 à 15:04")),
	}
}

func metricsSection(summary *vtanalytics.Summary) section {
	metrics := []struct {
		Label string
		Value int
	}{
		{"Visiteurs uniques", summary.UniqueVisitors},
		{"Visites totales", summary.TotalVisits},
		{"Visites aujourd'hui", summary.TodayVisits},
		{"Visites mobiles", summary.MobileVisits},
		{"Visites desktop", summary.DesktopVisits},
		{"Temps moyen (s)", summary.AvgTimeSpent},
	}

	var b strings.Builder
	b.WriteString("<div class=\"metrics\">\n")
	for _, m := range metrics {
		b.WriteString(fmt.Sprintf("<div class=\"metric\"><span class=\"label\">%s</span><span class=\"value\">%d</span></div>\n",
			template.HTMLEscapeString(m.Label), m.Value))
	}
	b.WriteString("</div>\n")

	return section{height: metricsGridHeight, html: b.String()}
}

func chartSection(chart *Chart) section {
	var b strings.Builder
	b.WriteString("<div class=\"chart\">\n")
	b.WriteString("<h2>" + template.HTMLEscapeString(chart.Title) + "</h2>\n")
	b.WriteString("<img src=\"" + chart.DataURI + "\" alt=\"" + template.HTMLEscapeString(chart.Title) + "\">\n")
	b.WriteString("<p class=\"legend\">")
	for i, s := range chart.Legend {
		if i > 0 {
			b.WriteString(" · ")
		}
		b.WriteString(fmt.Sprintf("<span style=\"color:%s\">■</span> %s",
			s.Color.ToHex(), template.HTMLEscapeString(s.Label)))
	}
	b.WriteString("</p>\n</div>\n")

	return section{height: chartBlockHeight, html: b.String()}
}

// pagesTableSections découpe le tableau des pages en sections ligne à
// ligne pour que la pagination puisse couper au milieu du tableau
func pagesTableSections(pageViews []vtanalytics.PageViewStat) []section {
	sections := []section{
		{height: tableTitleHeight, html: "<h2>Pages les plus vues</h2>\n"},
		{height: tableHeaderHeight, html: "<table class=\"pages\"><thead><tr><th>Page</th><th>Vues</th></tr></thead><tbody>\n"},
	}

	for _, pv := range pageViews {
		sections = append(sections, section{
			height: tableRowHeight,
			html: fmt.Sprintf("<tr><td>%s</td><td>%d</td></tr>\n",
				template.HTMLEscapeString(pv.Page), pv.Views),
		})
	}

	sections = append(sections, section{height: 0, html: "</tbody></table>\n"})
	return sections
}

const reportCSS = `
body { font-family: Helvetica, Arial, sans-serif; color: #111; margin: 0; }
.page { page-break-after: always; padding: 32px 40px; min-height: 27cm; position: relative; }
header h1 { margin: 0; font-size: 26px; }
header p { margin: 2px 0 0; color: #555; }
.meta { color: #777; font-size: 12px; }
.metrics { display: grid; grid-template-columns: repeat(3, 1fr); gap: 12px; margin: 16px 0; }
.metric { border: 1px solid #ddd; border-radius: 6px; padding: 10px; }
.metric .label { display: block; font-size: 12px; color: #666; }
.metric .value { display: block; font-size: 22px; font-weight: bold; }
.chart img { max-width: 100%; border: 1px solid #eee; }
.legend { font-size: 12px; color: #444; }
table.pages { width: 100%; border-collapse: collapse; }
table.pages th, table.pages td { border-bottom: 1px solid #ddd; padding: 5px 8px; text-align: left; }
footer { position: absolute; bottom: 16px; left: 40px; right: 40px; font-size: 11px; color: #888; text-align: center; }
`

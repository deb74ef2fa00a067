package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"KabuScout/internal/model"
)

// DefaultTableRows caps each table in a scan report message.
const DefaultTableRows = 10

func yen(v float64) string {
	return "¥" + humanize.Comma(int64(v+0.5))
}

func judgementIcon(j model.Judgement) string {
	switch j {
	case model.StrongBuy:
		return "🟢🟢"
	case model.Buy:
		return "🟢"
	case model.Sell:
		return "🔴"
	case model.StrongSell:
		return "🔴🔴"
	}
	return "⚪"
}

// FormatScanReport formats a scan's buy and sell tables into a Telegram
// message. limit <= 0 uses DefaultTableRows.
func FormatScanReport(r *model.ScanReport, limit int) string {
	if limit <= 0 {
		limit = DefaultTableRows
	}
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>KabuScout %s</b> | %s\n", r.Mode.Label(), r.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("分析 %d/%d 銘柄 (%s)\n\n", len(r.Results), r.Requested, r.Duration.Round(time.Second)))

	writeTable(&b, "🟢 <b>買い候補</b>", r.Buys, limit)
	writeTable(&b, "🔴 <b>売り候補</b>", r.Sells, limit)

	if len(r.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("⚠️ 取得失敗 %d 銘柄\n", len(r.Skipped)))
	}
	return b.String()
}

func writeTable(b *strings.Builder, title string, rows []*model.Analysis, limit int) {
	b.WriteString(title + "\n")
	if len(rows) == 0 {
		b.WriteString("  該当なし\n\n")
		return
	}
	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-6s %9s %5s %5s  %s\n", "コード", "株価", "RSI", "点", "銘柄"))
	for i, a := range rows {
		if i == limit {
			b.WriteString(fmt.Sprintf("... 他 %d 銘柄\n", len(rows)-limit))
			break
		}
		b.WriteString(fmt.Sprintf("%-6s %9s %5.1f %5.0f  %s\n",
			a.Ticker.Code(), yen(a.Price()), a.Indicators.RSI, a.Score, html.EscapeString(a.Ticker.DisplayName())))
	}
	b.WriteString("</pre>\n")
}

// FormatAnalysis formats one ticker's analysis in detail.
func FormatAnalysis(a *model.Analysis) string {
	var b strings.Builder
	ind := &a.Indicators

	b.WriteString(fmt.Sprintf("%s <b>%s</b> (%s) | %s\n\n",
		judgementIcon(a.Judgement), html.EscapeString(a.Ticker.DisplayName()), a.Ticker.Code(), a.Mode.Label()))

	change := 0.0
	if ind.PrevClose > 0 {
		change = (ind.CurrentPrice - ind.PrevClose) / ind.PrevClose * 100
	}
	b.WriteString(fmt.Sprintf("株価: %s (%+.2f%%) | 100株 %s\n", yen(ind.CurrentPrice), change, yen(a.LotCost)))
	b.WriteString(fmt.Sprintf("RSI: %.1f | MACD hist: %.2f\n", ind.RSI, ind.MACDHist))
	if ind.WeeklyRSI > 0 {
		b.WriteString(fmt.Sprintf("週足RSI: %.1f\n", ind.WeeklyRSI))
	}
	if ind.MAMid > 0 {
		line := fmt.Sprintf("移動平均: 短 %s / 中 %s", yen(ind.MAShort), yen(ind.MAMid))
		if ind.MALong > 0 {
			line += " / 長 " + yen(ind.MALong)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(fmt.Sprintf("支持線: %s | 抵抗線: %s (位置 %.0f%%)\n", yen(ind.Support), yen(ind.Resistance), ind.Position*100))
	if ind.HATrend != 0 {
		dir := "陽線"
		if ind.HATrend < 0 {
			dir = "陰線"
		}
		n := ind.HATrend
		if n < 0 {
			n = -n
		}
		b.WriteString(fmt.Sprintf("平均足: %s %d本連続\n", dir, n))
	}
	if a.Pattern != nil {
		b.WriteString(fmt.Sprintf("パターン: %s\n", a.Pattern.Label))
	}

	if len(a.Factors) > 0 {
		b.WriteString("\n📈 <b>スコア内訳:</b>\n")
		for _, f := range a.Factors {
			line := fmt.Sprintf("  %s: %+.0f", f.Name, f.Points)
			if f.Commentary != "" {
				line += " (" + html.EscapeString(f.Commentary) + ")"
			}
			b.WriteString(line + "\n")
		}
	}
	b.WriteString(fmt.Sprintf("\n<b>スコア %.0f → %s</b>\n", a.Score, a.Judgement.Label()))

	if !a.NextEarnings.IsZero() {
		b.WriteString(fmt.Sprintf("次回決算: %s\n", a.NextEarnings.Format("2006-01-02")))
	}
	for _, w := range a.Warnings {
		b.WriteString(html.EscapeString(w) + "\n")
	}
	return b.String()
}

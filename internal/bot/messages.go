package bot

import (
	"fmt"
	"html"
	"strings"

	"pengeluaran/internal/core"
	"pengeluaran/internal/summary"
)

// Summary titles.
const (
	TitleToday = "Pengeluaran Hari Ini"
	TitleWeek  = "Pengeluaran Minggu Ini"
	TitleMonth = "Pengeluaran Bulan Ini"
	TitleYear  = "Pengeluaran Tahun Ini"
)

var quarterLabels = map[int]string{
	1: "Q1 (Jan-Mar)",
	2: "Q2 (Apr-Jun)",
	3: "Q3 (Jul-Sep)",
	4: "Q4 (Okt-Des)",
}

const (
	msgUnparsable = "❌ <b>Format tidak dikenali.</b>\n\n" +
		"Gunakan format:\n" +
		"<code>[harga] [nama item] - [deskripsi]</code>\n\n" +
		"Contoh: <code>25k naspad rendang - tambah telur</code>\n" +
		"Ketik /help untuk panduan lengkap."

	msgNothingToDelete = "📭 Tidak ada entri untuk dihapus."
	msgSaveFailed      = "❌ Gagal menyimpan. Silakan coba lagi nanti."
	msgQueryFailed     = "❌ Gagal mengambil data. Silakan coba lagi nanti."
	msgDeleteFailed    = "❌ Gagal menghapus entri. Silakan coba lagi nanti."
	msgReportFailed    = "❌ Gagal membuat laporan. Silakan coba lagi nanti."
	msgUnknownCommand  = "🤔 Perintah tidak dikenal. Ketik /help untuk daftar perintah."
)

const helpText = "📖 <b>Panduan Lengkap</b>\n\n" +
	"━━━ <b>📝 Cara Catat Pengeluaran</b> ━━━\n" +
	"Kirim pesan dengan format:\n" +
	"<code>[harga] [nama item] - [deskripsi]</code>\n\n" +
	"<b>Shorthand harga:</b>\n" +
	"• <code>k</code> atau <code>rb</code> = ribu (×1.000)\n" +
	"• <code>jt</code> = juta (×1.000.000)\n" +
	"• Desimal OK: <code>2.5jt</code>, <code>1,5k</code>\n\n" +
	"<b>Contoh:</b>\n" +
	"• <code>25k naspad rendang - tambah telur</code>\n" +
	"  → Rp 25.000 | naspad rendang | tambah telur\n" +
	"• <code>150rb sepatu nike</code>\n" +
	"  → Rp 150.000 | sepatu nike\n" +
	"• <code>2.5jt laptop bekas</code>\n" +
	"  → Rp 2.500.000 | laptop bekas\n\n" +
	"<b>Separator deskripsi:</b> <code> - </code>, <code>, </code> atau <code> | </code>\n\n" +
	"━━━ <b>📋 Daftar Command</b> ━━━\n\n" +
	"<b>📊 Ringkasan:</b>\n" +
	"/today — Pengeluaran hari ini\n" +
	"/week — Pengeluaran minggu ini\n" +
	"/month — Pengeluaran bulan ini\n" +
	"/year — Pengeluaran tahun ini\n" +
	"/q1 — Kuartal 1 (Jan-Mar)\n" +
	"/q2 — Kuartal 2 (Apr-Jun)\n" +
	"/q3 — Kuartal 3 (Jul-Sep)\n" +
	"/q4 — Kuartal 4 (Okt-Des)\n\n" +
	"<b>📄 Laporan:</b>\n" +
	"/report — Download laporan PDF bulan ini\n" +
	"/export — Download data Excel bulan ini\n\n" +
	"<b>🛠 Lainnya:</b>\n" +
	"/delete — Hapus entri terakhir\n" +
	"/help — Tampilkan panduan ini\n\n" +
	"━━━ <b>🏷 Kategori Otomatis</b> ━━━\n" +
	"🍔 Makanan · ☕ Minuman · 🚗 Transportasi\n" +
	"🛒 Belanja · 🏥 Kesehatan · 🎮 Hiburan\n" +
	"💡 Utilitas · 📦 Lainnya"

func startText(name string) string {
	return fmt.Sprintf("👋 <b>Halo, %s!</b>\n\n", html.EscapeString(name)) +
		"Saya adalah <b>💰 Expense Tracker Bot</b> — asisten pencatat pengeluaranmu.\n\n" +
		"📝 <b>Cara pakai:</b>\n" +
		"Cukup kirim pesan seperti:\n" +
		"<code>25k naspad rendang - tambah telur</code>\n" +
		"<code>150rb sepatu nike</code>\n" +
		"<code>5000 air mineral</code>\n\n" +
		"📊 <b>Lihat ringkasan:</b>\n" +
		"/today — Hari ini\n" +
		"/week — Minggu ini\n" +
		"/month — Bulan ini\n" +
		"/year — Tahun ini\n" +
		"/q1 /q2 /q3 /q4 — Per kuartal\n\n" +
		"📄 /report — Download laporan PDF\n" +
		"📊 /export — Download data Excel\n" +
		"🗑 /delete — Hapus entri terakhir\n" +
		"❓ /help — Panduan lengkap"
}

// formatSummary renders a summary for chat, or the no-data notice when empty.
func formatSummary(s summary.Summary) string {
	if s.Empty() {
		return fmt.Sprintf("📭 <b>%s</b>\n\nBelum ada pengeluaran tercatat.", s.Title)
	}

	lines := []string{
		fmt.Sprintf("📊 <b>%s</b>\n", s.Title),
		fmt.Sprintf("💳 Total: <b>%s</b>", core.FormatRupiah(s.Total)),
		fmt.Sprintf("📝 Transaksi: <b>%d</b>\n", s.Count),
		"─── Per Kategori ───",
	}
	for _, c := range s.Categories {
		lines = append(lines, fmt.Sprintf("  %s: %s (%s)", c.Category, core.FormatRupiah(c.Amount), c.PercentRounded(s.Total)))
	}

	lines = append(lines, "\n─── Transaksi Terbaru ───")
	for _, r := range s.Recent {
		desc := ""
		if r.HasDescription() {
			desc = fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(r.Desc()))
		}
		lines = append(lines, fmt.Sprintf("  • %s — %s%s [%s]",
			core.FormatRupiah(r.Amount), html.EscapeString(r.Item), desc, r.Timestamp.Format("2006-01-02")))
	}
	if s.More > 0 {
		lines = append(lines, fmt.Sprintf("  <i>...dan %d transaksi lainnya</i>", s.More))
	}
	return strings.Join(lines, "\n")
}

func recordedText(e core.Expense, todayTotal int64, todayCount int) string {
	var b strings.Builder
	b.WriteString("✅ <b>Pengeluaran tercatat!</b>\n\n")
	fmt.Fprintf(&b, "  👤 %s\n", html.EscapeString(e.OwnerName))
	fmt.Fprintf(&b, "  💰 %s\n", core.FormatRupiah(e.Amount))
	fmt.Fprintf(&b, "  🏷 %s", html.EscapeString(e.Item))
	if e.HasDescription() {
		fmt.Fprintf(&b, "\n  📝 %s", html.EscapeString(e.Desc()))
	}
	fmt.Fprintf(&b, "\n  %s\n", e.Category)
	fmt.Fprintf(&b, "  📅 %s\n", e.StampedAt())
	fmt.Fprintf(&b, "\n📊 Total hari ini: <b>%s</b> (%d transaksi)", core.FormatRupiah(todayTotal), todayCount)
	return b.String()
}

func deletedText(e core.Expense) string {
	return "🗑 <b>Entri terakhir dihapus:</b>\n\n" +
		fmt.Sprintf("  📅 %s\n", e.StampedAt()) +
		fmt.Sprintf("  💰 %s\n", core.FormatRupiah(e.Amount)) +
		fmt.Sprintf("  🏷 %s\n", html.EscapeString(e.Item)) +
		fmt.Sprintf("  %s", e.Category)
}

func noReportDataText(period string) string {
	return fmt.Sprintf("📭 Tidak ada data pengeluaran untuk <b>%s</b>.", period)
}

func reportCaption(kind, period, name string, s summary.Summary) string {
	return fmt.Sprintf("📄 <b>%s — %s</b>\n👤 %s\n💳 Total: <b>%s</b> (%d transaksi)",
		kind, period, html.EscapeString(name), core.FormatRupiah(s.Total), s.Count)
}

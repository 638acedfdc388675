package parser

import (
	"strings"

	"pengeluaran/internal/core"
)

type keywordSet struct {
	category core.Category
	keywords []string
}

// keywordTable is scanned in order; the first category with a matching keyword wins.
// Matching is by substring, so short keywords also hit inside longer words.
var keywordTable = []keywordSet{
	{core.Makanan, []string{
		"nasi", "naspad", "makan", "bakso", "mie", "ayam", "sate", "soto",
		"rendang", "nasi goreng", "martabak", "roti", "pizza", "burger",
		"sushi", "dimsum", "gorengan", "pecel", "rawon", "gudeg",
		"lauk", "sayur", "tempe", "tahu", "ikan", "udang", "cumi",
		"kebab", "rice", "rice bowl", "geprek", "seblak", "cilok",
		"batagor", "siomay", "pempek", "indomie", "mcd", "kfc",
		"warteg", "padang", "food", "snack", "cemilan", "kue",
	}},
	{core.Minuman, []string{
		"kopi", "coffee", "teh", "tea", "jus", "juice", "susu", "milk",
		"air", "mineral", "boba", "chatime", "mixue", "es", "aqua",
		"minum", "latte", "cappuccino", "americano", "matcha",
		"starbucks", "sbux", "janji jiwa", "kenangan",
	}},
	{core.Transportasi, []string{
		"grab", "gojek", "uber", "taxi", "taksi", "bensin", "pertamax",
		"pertalite", "solar", "parkir", "tol", "busway", "mrt", "lrt",
		"kereta", "krl", "commuter", "ojek", "ojol", "angkot", "bus",
		"transjakarta", "tj", "transportasi", "ongkir", "kirim",
	}},
	{core.Belanja, []string{
		"baju", "sepatu", "celana", "jaket", "tas", "dompet", "jam",
		"aksesori", "gadget", "hp", "laptop", "charger", "kabel",
		"elektronik", "belanja", "shopee", "tokopedia", "lazada",
	}},
	{core.Kesehatan, []string{
		"obat", "vitamin", "dokter", "apotek", "klinik", "rumah sakit",
		"rs", "health", "masker", "sanitizer", "test", "konsul",
	}},
	{core.Hiburan, []string{
		"game", "film", "bioskop", "netflix", "spotify", "youtube",
		"nonton", "tiket", "konser", "karaoke", "main", "wisata",
	}},
	{core.Utilitas, []string{
		"listrik", "pln", "wifi", "internet", "pulsa", "paket data",
		"indosat", "telkomsel", "xl", "pdam", "air pdam", "gas",
	}},
}

// Categorize returns the first category whose keyword occurs in text, or core.Lainnya.
func Categorize(text string) core.Category {
	lower := strings.ToLower(text)
	for _, set := range keywordTable {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.category
			}
		}
	}
	return core.Lainnya
}

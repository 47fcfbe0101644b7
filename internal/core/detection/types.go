package detection

import (
	"context"
	"strings"
)

// Detector 食材辨識模型
type Detector interface {
	Detect(ctx context.Context, imageB64 string) ([]Detection, error)
}

// Detection 單一偵測結果
type Detection struct {
	Name        string    `json:"name"`
	NameUrdu    string    `json:"name_urdu"`
	Ingredient  string    `json:"ingredient"`
	Confidence  float64   `json:"confidence"`
	BoundingBox []float64 `json:"bounding_box"` // [x1, y1, x2, y2]
	ClassID     int       `json:"class_id"`
}

// FoodClass 模型類別的名稱
type FoodClass struct {
	Name     string
	NameUrdu string
}

// UnknownClass 未知類別
var UnknownClass = FoodClass{Name: "Unknown", NameUrdu: "نامعلوم"}

// FoodClasses 模型輸出類別表
var FoodClasses = map[int]FoodClass{
	0:  {"Tamatar", "ٹماٹر"},
	1:  {"Gajar", "گاجر"},
	2:  {"Gobi", "گوبھی"},
	3:  {"Anday", "انڈے"},
	4:  {"Hari Mirch", "ہری مرچ"},
	5:  {"Shimla Mirch", "شملہ مرچ"},
	6:  {"Kela", "کیلا"},
	7:  {"Seb", "سیب"},
	8:  {"Hari Piyaaz", "ہری پیاز"},
	9:  {"Maalta", "مالٹا"},
	10: {"Kheera", "کھیرا"},
	11: {"Piyaaz", "پیاز"},
	12: {"Aloo", "آلو"},
	13: {"lehsan-adrak-paste", "لہسن ادرک پیسٹ"},
	14: {"sirka", "سرکہ"},
	15: {"ketchup", "کیچپ"},
	16: {"chili-sauce", "چلی سوس"},
	17: {"soy-sauce", "سویا سوس"},
	18: {"lehsan", "لہسن"},
	19: {"doodh", "دودھ"},
	20: {"dahi", "دہی"},
}

// LookupClass 依類別編號取得名稱
func LookupClass(id int) FoodClass {
	if c, ok := FoodClasses[id]; ok {
		return c
	}
	return UnknownClass
}

// IngredientID 將顯示名稱轉為食譜使用的食材代號
func IngredientID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(id)
}

// Ingredients 取出不重複的食材代號，保留偵測順序
func Ingredients(detections []Detection) []string {
	seen := make(map[string]bool, len(detections))
	out := make([]string, 0, len(detections))
	for _, d := range detections {
		if d.Ingredient == "" || seen[d.Ingredient] {
			continue
		}
		seen[d.Ingredient] = true
		out = append(out, d.Ingredient)
	}
	return out
}

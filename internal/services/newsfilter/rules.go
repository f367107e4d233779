package newsfilter

// Region groups sources for the local/international balance.
type Region string

const (
	RegionTaiwan        Region = "tw"
	RegionInternational Region = "intl"
	RegionAI            Region = "ai"
)

const defaultMaxItems = 5

// SourceRules are the scoring rules for one feed.
type SourceRules struct {
	Name             string
	Label            string
	Region           Region
	PriorityKeywords []string
	Exclude          []string
	MaxItems         int
	BaseScore        int
}

// Rules hold every keyword list the scorer uses. Sources are ranked in slice order.
type Rules struct {
	Sources           []SourceRules
	TaiwanInterests   []string
	GlobalTaiwanFocus []string
	MustKeepPhrases   []string
	PracticalKeywords []string
}

// DefaultRules returns the rules the daily report is built with.
func DefaultRules() Rules {
	return Rules{
		Sources: []SourceRules{
			{
				Name:   "technews",
				Label:  "🇹🇼 科技新報",
				Region: RegionTaiwan,
				PriorityKeywords: []string{
					"AI", "人工智慧", "ChatGPT", "Claude", "Gemini",
					"生成式", "LLM", "大型語言模型",
					"台積電", "TSMC", "聯發科", "鴻海", "華碩", "宏碁",
					"台灣", "Taiwan", "數位發展部", "資策會",
					"工具", "App", "應用程式", "開源", "免費",
				},
				Exclude:   []string{"股價", "財報", "營收", "法說會", "併購", "投資", "基金"},
				MaxItems:  12,
				BaseScore: 8,
			},
			{
				Name:   "ithome",
				Label:  "🇹🇼 iThome",
				Region: RegionTaiwan,
				PriorityKeywords: []string{
					"AI", "資安", "Cloud", "雲端", "DevOps",
					"開發", "Python", "JavaScript", "API",
					"微軟", "Google", "AWS", "Azure",
					"企業應用", "數位轉型", "自動化",
				},
				Exclude:   []string{"研討會", "論壇", "招標", "採購"},
				MaxItems:  10,
				BaseScore: 7,
			},
			{
				Name:   "inside",
				Label:  "🇹🇼 INSIDE",
				Region: RegionTaiwan,
				PriorityKeywords: []string{
					"startup", "新創", "AI", "創新", "Web3",
					"NFT", "區塊鏈", "Fintech", "金融科技",
					"電商", "SaaS", "B2B", "B2C",
					"使用者體驗", "UX", "產品設計",
				},
				Exclude:   []string{"募資", "種子輪", "Series", "IPO"},
				MaxItems:  8,
				BaseScore: 6,
			},
			{
				Name:   "hackernews",
				Label:  "🌍 Hacker News",
				Region: RegionInternational,
				PriorityKeywords: []string{
					"AI", "ChatGPT", "Claude", "Gemini", "OpenAI",
					"tool", "app", "browser", "Python", "npm",
				},
				Exclude:  []string{"CVE-2025", "CVSS", "vulnerability", "ransomware"},
				MaxItems: 8,
			},
			{
				Name:   "techcrunch",
				Label:  "🌍 TechCrunch",
				Region: RegionInternational,
				PriorityKeywords: []string{
					"AI", "ChatGPT", "OpenAI", "Anthropic",
					"app", "tool", "feature", "launch",
				},
				Exclude:  []string{"raises", "funding", "valuation", "layoffs"},
				MaxItems: 6,
			},
			{
				Name:             "openai",
				Label:            "🤖 OpenAI",
				Region:           RegionAI,
				PriorityKeywords: []string{"GPT", "API", "model", "release"},
				MaxItems:         5,
				BaseScore:        15,
			},
			{
				Name:             "arstechnica",
				Label:            "🌍 Ars Technica",
				Region:           RegionInternational,
				PriorityKeywords: []string{"AI", "science", "research", "quantum", "space"},
				Exclude:          []string{"gaming", "review", "streaming"},
				MaxItems:         4,
			},
			{
				Name:             "bair",
				Label:            "🎓 Berkeley AI",
				Region:           RegionAI,
				PriorityKeywords: []string{"research", "paper", "algorithm"},
				MaxItems:         3,
				BaseScore:        3,
			},
		},
		TaiwanInterests: []string{
			"半導體", "晶片", "晶圓", "IC設計", "封測",
			"電動車", "儲能", "綠能", "太陽能", "風電",
			"Taiwan", "台灣", "Taipei", "台北",
			"Asia", "亞洲", "東南亞", "ASEAN",
			"教學", "懶人包", "比較", "推薦", "免費",
			"中文", "繁體", "在地化", "本土化",
			"LINE", "Instagram", "YouTube", "抖音", "TikTok",
			"街口", "PChome", "蝦皮", "momo",
		},
		GlobalTaiwanFocus: []string{
			"NVIDIA", "AMD", "Intel",
			"Apple", "iPhone",
			"供應鏈", "supply chain",
			"中美", "US-China", "晶片戰",
		},
		MustKeepPhrases: []string{
			"台積電", "TSMC",
			"數位發展部",
			"ChatGPT 開放台灣",
			"Google 台灣",
			"Microsoft 台灣",
		},
		PracticalKeywords: []string{"教學", "tutorial", "guide", "實測", "評測", "比較"},
	}
}

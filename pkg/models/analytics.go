package models

// ProfileStats summarizes the latest counters of a profile's posts
type ProfileStats struct {
	AverageLikes       int64     `json:"averageLikes"`
	AverageComments    int64     `json:"averageComments"`
	AverageViews       int64     `json:"averageViews"`
	EngagementRate     float64   `json:"engagementRate"`
	TotalPosts         int       `json:"totalPosts"`
	BestPerformingPost *BestPost `json:"bestPerformingPost"`
}

// BestPost is the post with the highest likes plus comments
type BestPost struct {
	Shortcode string `json:"shortcode"`
	Likes     int64  `json:"likes"`
	Comments  int64  `json:"comments"`
	URL       string `json:"url"`
}

// GrowthPoint is one profile history entry reduced for charting
type GrowthPoint struct {
	Date      string `json:"date"`
	Followers int64  `json:"followers"`
	Following int64  `json:"following"`
	Posts     int64  `json:"posts"`
}

// PostPerformance is one post reduced to its latest counters
type PostPerformance struct {
	Date     string `json:"date"`
	Likes    int64  `json:"likes"`
	Comments int64  `json:"comments"`
	Views    int64  `json:"views"`
	PostURL  string `json:"postUrl"`
}

// Analytics bundles the three derived views of a tracked profile
type Analytics struct {
	Stats           ProfileStats      `json:"stats"`
	GrowthSeries    []GrowthPoint     `json:"growthData"`
	PostPerformance []PostPerformance `json:"postPerformance"`
}

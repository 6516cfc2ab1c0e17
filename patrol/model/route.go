package model

type Post struct {
	ID         int32  `gorm:"primaryKey;column:id" json:"id"`
	Name       string `gorm:"column:name;type:varchar(120);not null" json:"name"`
	Facilities string `gorm:"column:facilities;type:varchar(255)" json:"facilities"`
}

func (Post) TableName() string {
	return "posts"
}

type Route struct {
	ID          int32  `gorm:"primaryKey;column:id" json:"id"`
	PostID      int32  `gorm:"column:post_id;not null;index" json:"postId"`
	Name        string `gorm:"column:name;type:varchar(120);not null" json:"name"`
	Description string `gorm:"column:description;type:varchar(255)" json:"description"`

	Post *Post `gorm:"foreignKey:PostID" json:"post,omitempty"`
}

func (Route) TableName() string {
	return "routes"
}

// Checkpoint is a QR-coded control point. When ExpectedLatitude and
// ExpectedLongitude are both set, scans are geofenced around them.
type Checkpoint struct {
	ID                int32    `gorm:"primaryKey;column:id" json:"id"`
	RouteID           int32    `gorm:"column:route_id;not null;index" json:"routeId"`
	Name              string   `gorm:"column:name;type:varchar(120);not null;uniqueIndex" json:"name"`
	Description       string   `gorm:"column:description;type:varchar(255)" json:"description"`
	ExpectedLatitude  *float64 `gorm:"column:expected_latitude" json:"expectedLatitude,omitempty"`
	ExpectedLongitude *float64 `gorm:"column:expected_longitude" json:"expectedLongitude,omitempty"`
	// ToleranceRadius is the accepted distance in meters. Nil or zero means
	// the 30 m default; imports refuse negative values.
	ToleranceRadius   *float64 `gorm:"column:tolerance_radius" json:"toleranceRadius,omitempty"`
}

func (Checkpoint) TableName() string {
	return "checkpoints"
}

func (c *Checkpoint) Geofenced() bool {
	return c.ExpectedLatitude != nil && c.ExpectedLongitude != nil
}

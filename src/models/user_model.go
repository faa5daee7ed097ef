package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	Id             primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Name           string               `json:"name" bson:"name" validate:"required"`
	Username       string               `json:"username" bson:"username" validate:"required"`
	Email          string               `json:"email" bson:"email" validate:"required,email"`
	Password       string               `json:"-" bson:"password"`
	ProfilePicture string               `json:"profilePicture" bson:"profile_picture"`
	BannerImg      string               `json:"bannerImg" bson:"banner_img"`
	HeadLine       string               `json:"headline" bson:"headline"`
	About          string               `json:"about" bson:"about"`
	Location       string               `json:"location" bson:"location"`
	Skills         []string             `json:"skills" bson:"skills"`
	Experience     []Experience         `json:"experience" bson:"experience"`
	Education      []Education          `json:"education" bson:"education"`
	Connections    []primitive.ObjectID `json:"connections" bson:"connections"`
	CreatedAt      time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// IsConnectedTo reports whether other is in the user's connection set
func (u *User) IsConnectedTo(other primitive.ObjectID) bool {
	for _, conn := range u.Connections {
		if conn == other {
			return true
		}
	}
	return false
}

// PublicProfile returns the projection exposed to other users
func (u *User) PublicProfile() UserDto {
	connections := u.Connections
	if connections == nil {
		connections = []primitive.ObjectID{}
	}
	return UserDto{
		ID:             u.Id,
		Name:           u.Name,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
		Headline:       u.HeadLine,
		Connections:    connections,
	}
}

type UserDto struct {
	ID             primitive.ObjectID   `json:"_id"`
	Name           string               `json:"name"`
	Username       string               `json:"username"`
	ProfilePicture string               `json:"profilePicture"`
	Headline       string               `json:"headline,omitempty"`
	Connections    []primitive.ObjectID `json:"connections"`
}

type Experience struct {
	Title       string    `json:"title" bson:"title"`
	Company     string    `json:"company" bson:"company"`
	StartDate   time.Time `json:"startDate" bson:"startDate"`
	EndDate     time.Time `json:"endDate" bson:"endDate"`
	Description string    `json:"description" bson:"description"`
}

type Education struct {
	School       string `json:"school" bson:"school"`
	FieldOfStudy string `json:"fieldOfStudy" bson:"fieldOfStudy"`
	StartYear    int    `json:"startYear" bson:"startYear"`
	EndYear      int    `json:"endYear" bson:"endYear"`
}

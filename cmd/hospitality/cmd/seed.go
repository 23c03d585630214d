package cmd

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/repository"
)

type seedResult struct {
	Stadium *models.Stadium
	Rooms   []*models.Room
	Users   []*models.User
	Guests  []*models.Guest
}

type seedGuest struct {
	first, last, company, vip string
	room                      int
}

var demoGuests = []seedGuest{
	{"Mario", "Rossi", "Rossi Costruzioni", models.VIPLevelVIP, 0},
	{"Giulia", "Bianchi", "Bianchi & Partners", models.VIPLevelPremium, 0},
	{"Luca", "Verdi", "", models.VIPLevelStandard, 0},
	{"Anna", "Neri", "Neri Logistica", models.VIPLevelUltraVIP, 1},
	{"Paolo", "Gallo", "", models.VIPLevelStandard, 1},
}

// seedDev inserts the demo stadium in one transaction.
func seedDev(ctx context.Context, db *bun.DB, password string) (*seedResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	res := &seedResult{}
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		stadiums := repository.NewBunStadiumRepository(tx)
		users := repository.NewBunUserRepository(tx)
		guests := repository.NewBunGuestRepository(tx)
		rooms := repository.NewBunRoomAssignmentRepository(tx)

		res.Stadium = &models.Stadium{Name: "Stadio Demo", City: "Genova", IsActive: true}
		if err := stadiums.Create(ctx, res.Stadium); err != nil {
			return err
		}
		for _, name := range []string{"Sky Lounge", "Business Club"} {
			room := &models.Room{StadiumID: res.Stadium.ID, Name: name, Capacity: 60}
			if err := stadiums.CreateRoom(ctx, room); err != nil {
				return err
			}
			res.Rooms = append(res.Rooms, room)
		}

		stadiumID := res.Stadium.ID
		for _, u := range []struct {
			username, fullName string
			role               auth.Role
		}{
			{"demo-admin", "Demo Admin", auth.RoleStadiumAdmin},
			{"demo-hostess-1", "Hostess One", auth.RoleHostess},
			{"demo-hostess-2", "Hostess Two", auth.RoleHostess},
		} {
			user := &models.User{
				Username:     u.username,
				PasswordHash: string(hash),
				FullName:     u.fullName,
				Role:         u.role,
				StadiumID:    &stadiumID,
				IsActive:     true,
			}
			if err := users.Create(ctx, user); err != nil {
				return err
			}
			res.Users = append(res.Users, user)
		}

		// One hostess per room.
		for i, room := range res.Rooms {
			if err := rooms.Assign(ctx, res.Users[i+1].ID, room.ID); err != nil {
				return err
			}
		}

		for _, g := range demoGuests {
			guest := &models.Guest{
				StadiumID:   stadiumID,
				RoomID:      res.Rooms[g.room].ID,
				FirstName:   g.first,
				LastName:    g.last,
				CompanyName: g.company,
				VIPLevel:    g.vip,
				IsActive:    true,
			}
			if err := guests.Create(ctx, guest); err != nil {
				return err
			}
			res.Guests = append(res.Guests, guest)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed demo data: %w", err)
	}
	return res, nil
}

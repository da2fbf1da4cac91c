package services

import (
	"sync"
	"testing"

	"papertrade/internal/models"
	"papertrade/internal/testutil"

	"golang.org/x/crypto/bcrypt"
)

func TestRegister(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		user, err := svc.Register("alice", "password123", "password123")
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected non-empty user ID")
		}
		if user.Username != "alice" {
			t.Errorf("expected username alice, got %s", user.Username)
		}
		if user.Cash != models.StartingCash {
			t.Errorf("expected starting cash %d, got %d", models.StartingCash, user.Cash)
		}
		if user.PasswordHash == "password123" {
			t.Error("password must not be stored in the clear")
		}
	})

	t.Run("empty_username", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		_, err := svc.Register("", "password123", "password123")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("empty_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		_, err := svc.Register("alice", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("mismatched_confirmation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		_, err := svc.Register("alice", "password123", "password124")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("duplicate_username", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		_, err := svc.Register("bob", "password123", "password123")
		testutil.AssertNoError(t, err)

		_, err = svc.Register("bob", "different456", "different456")
		testutil.AssertAppError(t, err, "DUPLICATE_USERNAME")

		var count int64
		db.Model(&models.User{}).Where("username = ?", "bob").Count(&count)
		if count != 1 {
			t.Errorf("expected exactly one bob row, got %d", count)
		}
	})

	t.Run("concurrent_duplicate_single_winner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		// Two racing registrations of the same name: the unique index, not
		// a pre-check, decides the winner, so exactly one row may exist.
		start := make(chan struct{})
		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, errs[i] = svc.Register("frank", "password123", "password123")
			}(i)
		}
		close(start)
		wg.Wait()

		successes := 0
		for _, err := range errs {
			if err == nil {
				successes++
			}
		}
		if successes != 1 {
			t.Errorf("expected exactly one successful registration, got %d (errors: %v)", successes, errs)
		}
		var count int64
		db.Model(&models.User{}).Where("username = ?", "frank").Count(&count)
		if count != 1 {
			t.Errorf("expected exactly one frank row, got %d", count)
		}
	})

	t.Run("username_case_sensitive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		_, err := svc.Register("Carol", "password123", "password123")
		testutil.AssertNoError(t, err)

		_, err = svc.Register("carol", "password123", "password123")
		testutil.AssertNoError(t, err)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Run("round_trip", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		registered, err := svc.Register("dave", "hunter22", "hunter22")
		testutil.AssertNoError(t, err)

		user, err := svc.Authenticate("dave", "hunter22")
		testutil.AssertNoError(t, err)
		if user.ID != registered.ID {
			t.Errorf("expected user ID %s, got %s", registered.ID, user.ID)
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		_, err := svc.Register("erin", "hunter22", "hunter22")
		testutil.AssertNoError(t, err)

		_, err = svc.Authenticate("erin", "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_username_same_error", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		// Unknown user and bad password must be indistinguishable.
		_, err := svc.Authenticate("nobody", "hunter22")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}

func TestChangePassword(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		user := testutil.CreateTestUser(t, db)
		err := svc.ChangePassword(user.ID, "password123", "newpass456", "newpass456")
		testutil.AssertNoError(t, err)

		_, err = svc.Authenticate(user.Username, "newpass456")
		testutil.AssertNoError(t, err)
		_, err = svc.Authenticate(user.Username, "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("mismatched_confirmation_leaves_hash", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		user := testutil.CreateTestUser(t, db)
		err := svc.ChangePassword(user.ID, "password123", "newpass456", "newpass999")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		var stored models.User
		db.First(&stored, "id = ?", user.ID)
		if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")) != nil {
			t.Error("stored hash changed despite mismatched confirmation")
		}
	})

	t.Run("wrong_old_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		user := testutil.CreateTestUser(t, db)
		err := svc.ChangePassword(user.ID, "wrong", "newpass456", "newpass456")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("empty_field", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		user := testutil.CreateTestUser(t, db)
		err := svc.ChangePassword(user.ID, "password123", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUsernameAvailable(t *testing.T) {
	t.Run("taken_and_free", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		user := testutil.CreateTestUser(t, db)

		available, err := svc.UsernameAvailable(user.Username)
		testutil.AssertNoError(t, err)
		if available {
			t.Error("expected taken username to be unavailable")
		}

		available, err = svc.UsernameAvailable("someone-else")
		testutil.AssertNoError(t, err)
		if !available {
			t.Error("expected free username to be available")
		}
	})

	t.Run("empty_username_unavailable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)

		available, err := svc.UsernameAvailable("")
		testutil.AssertNoError(t, err)
		if available {
			t.Error("expected empty username to be unavailable")
		}
	})
}

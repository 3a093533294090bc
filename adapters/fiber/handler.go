package fiber

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lborres/guildhall/core"
	"github.com/lborres/guildhall/validate"
)

// result produces the data of a successful response
type result func(c fiber.Ctx) (any, error)

// handle writes {"data": v} with the endpoint's success status. Errors go
// back up the chain to requestLog, which renders them.
func (a *Adapter) handle(status int, fn result) fiber.Handler {
	return func(c fiber.Ctx) error {
		data, err := fn(c)
		if err != nil {
			return err
		}
		return c.Status(status).JSON(fiber.Map{"data": data})
	}
}

// decode validates the request body as T before anything else runs
func decode[T any](a *Adapter, c fiber.Ctx) (T, error) {
	return validate.Decode[T](a.g.Validator, c.Body())
}

// ============================================
// Auth
// ============================================

func (a *Adapter) signUp(c fiber.Ctx) (any, error) {
	in, err := decode[core.SignUpInput](a, c)
	if err != nil {
		return nil, err
	}

	details, err := a.g.Auth.SignUp(c.Context(), in)
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (a *Adapter) signIn(c fiber.Ctx) (any, error) {
	in, err := decode[core.SignInInput](a, c)
	if err != nil {
		return nil, err
	}

	tok, err := a.g.Auth.SignIn(c.Context(), in)
	if err != nil {
		return nil, err
	}

	a.setSessionCookie(c, tok)
	return core.SignInResult{
		AccountID: tok.AccountID,
		Token:     tok.Token,
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

func (a *Adapter) signOut(c fiber.Ctx) (any, error) {
	p, err := a.principal(c)
	if err != nil {
		return nil, err
	}

	if err := a.g.Auth.SignOut(c.Context(), p); err != nil {
		return nil, err
	}

	c.ClearCookie(sessionCookie)
	return "signed out", nil
}

// ============================================
// Accounts
// ============================================

func (a *Adapter) getMe(c fiber.Ctx) (any, error) {
	p, err := a.principal(c)
	if err != nil {
		return nil, err
	}

	details, err := a.g.Accounts.Me(c.Context(), p)
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (a *Adapter) updateProfile(c fiber.Ctx) (any, error) {
	u, err := decode[core.ProfileUpdate](a, c)
	if err != nil {
		return nil, err
	}
	p, err := a.principal(c)
	if err != nil {
		return nil, err
	}

	profile, err := a.g.Accounts.UpdateProfile(c.Context(), p, c.Params("id"), u)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (a *Adapter) deleteAccount(c fiber.Ctx) (any, error) {
	in, err := decode[core.ReauthInput](a, c)
	if err != nil {
		return nil, err
	}
	p, err := a.principal(c)
	if err != nil {
		return nil, err
	}

	if err := a.g.Accounts.Delete(c.Context(), p, c.Params("id"), in.Password); err != nil {
		return nil, err
	}

	c.ClearCookie(sessionCookie)
	return "account deleted", nil
}

// ============================================
// Characters
// ============================================

func (a *Adapter) createCharacter(c fiber.Ctx) (any, error) {
	in, err := decode[core.CharacterInput](a, c)
	if err != nil {
		return nil, err
	}
	p, err := a.principal(c)
	if err != nil {
		return nil, err
	}

	ch, err := a.g.Characters.Create(c.Context(), p, in)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (a *Adapter) listCharacters(c fiber.Ctx) (any, error) {
	list, err := a.g.Characters.List(c.Context())
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (a *Adapter) getCharacter(c fiber.Ctx) (any, error) {
	ch, err := a.g.Characters.Get(c.Context(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (a *Adapter) renameCharacter(c fiber.Ctx) (any, error) {
	in, err := decode[core.CharacterInput](a, c)
	if err != nil {
		return nil, err
	}
	p, err := a.principal(c)
	if err != nil {
		return nil, err
	}

	ch, err := a.g.Characters.Rename(c.Context(), p, c.Params("id"), in)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (a *Adapter) deleteCharacter(c fiber.Ctx) (any, error) {
	in, err := decode[core.ReauthInput](a, c)
	if err != nil {
		return nil, err
	}
	p, err := a.principal(c)
	if err != nil {
		return nil, err
	}

	if err := a.g.Characters.Delete(c.Context(), p, c.Params("id"), in.Password); err != nil {
		return nil, err
	}
	return "character deleted", nil
}

// ============================================
// Items
// ============================================

func (a *Adapter) createItem(c fiber.Ctx) (any, error) {
	in, err := decode[core.ItemInput](a, c)
	if err != nil {
		return nil, err
	}
	p, err := a.principal(c)
	if err != nil {
		return nil, err
	}

	item, err := a.g.Items.Create(c.Context(), p, in)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (a *Adapter) listItems(c fiber.Ctx) (any, error) {
	list, err := a.g.Items.List(c.Context())
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (a *Adapter) getItem(c fiber.Ctx) (any, error) {
	item, err := a.g.Items.Get(c.Context(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (a *Adapter) updateItem(c fiber.Ctx) (any, error) {
	u, err := decode[core.ItemUpdate](a, c)
	if err != nil {
		return nil, err
	}
	p, err := a.principal(c)
	if err != nil {
		return nil, err
	}

	item, err := a.g.Items.Update(c.Context(), p, c.Params("id"), u)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (a *Adapter) deleteItem(c fiber.Ctx) (any, error) {
	in, err := decode[core.ReauthInput](a, c)
	if err != nil {
		return nil, err
	}
	p, err := a.principal(c)
	if err != nil {
		return nil, err
	}

	if err := a.g.Items.Delete(c.Context(), p, c.Params("id"), in.Password); err != nil {
		return nil, err
	}
	return "item deleted", nil
}

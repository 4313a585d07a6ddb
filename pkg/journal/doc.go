// Package journal records commits of a fiber root in a SQLite database.
//
//	j, err := journal.Open("commits.db")
//	if err != nil {
//	    return err
//	}
//	defer j.Close()
//	root, err := fiber.CreateRoot(container, app, fiber.WithCommitHook(j.Hook(logger)))
package journal

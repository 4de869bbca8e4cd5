package server

import (
	"devconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/v1/posts
// @Summary List posts
// @Description Newest first
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.List(c.UserContext())
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/v1/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.Get(c.UserContext(), id)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/v1/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param request body service.CreatePostInput true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.CreatePostInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	post, err := s.postService.Create(c.UserContext(), claimOf(c), req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// DeletePost handles DELETE /api/v1/posts/:id
// @Summary Delete own post
// @Tags posts
// @Produce json
// @Security TokenAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.Delete(c.UserContext(), claimOf(c), id); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(messageResponse("Post removed"))
}

// LikePost handles PUT /api/v1/posts/like/:id
// @Summary Like a post
// @Tags posts
// @Produce json
// @Security TokenAuth
// @Param id path int true "Post ID"
// @Success 200 {array} models.Like
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/like/{id} [put]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	likes, err := s.postService.Like(c.UserContext(), claimOf(c), id)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(likes)
}

// UnlikePost handles PUT /api/v1/posts/unlike/:id
// @Summary Unlike a post
// @Tags posts
// @Produce json
// @Security TokenAuth
// @Param id path int true "Post ID"
// @Success 200 {array} models.Like
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/unlike/{id} [put]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	likes, err := s.postService.Unlike(c.UserContext(), claimOf(c), id)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(likes)
}

// CreateComment handles POST /api/v1/posts/comment/:id
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Security TokenAuth
// @Param id path int true "Post ID"
// @Param request body service.CommentInput true "Comment"
// @Success 201 {array} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/comment/{id} [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.CommentInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	comments, err := s.postService.AddComment(c.UserContext(), claimOf(c), id, req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comments)
}

// DeleteComment handles DELETE /api/v1/posts/comment/:id/:comment_id
// @Summary Delete own comment
// @Tags posts
// @Produce json
// @Security TokenAuth
// @Param id path int true "Post ID"
// @Param comment_id path string true "Comment ID"
// @Success 200 {array} models.Comment
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/comment/{id}/{comment_id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.postService.DeleteComment(c.UserContext(), claimOf(c), id, c.Params("comment_id"))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(comments)
}
